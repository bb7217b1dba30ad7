package config

// waveshare7 is the register bank for the Waveshare 7" 800x480 capacitive
// panel. Offsets are relative to Register.
var waveshare7 = [Size]byte{
	// 0-9: sensor line order
	0x12, 0x10, 0x0E, 0x0C, 0x0A, 0x08, 0x06, 0x04, 0x02, 0x00,
	// 10-41: drive channel mapping
	0x05, 0x55, 0x15, 0x55, 0x25, 0x55, 0x35, 0x55, 0x45, 0x55, 0x55,
	0x55, 0x65, 0x55, 0x75, 0x55, 0x85, 0x55, 0x95, 0x55, 0xA5, 0x55,
	0xB5, 0x55, 0xC5, 0x55, 0xD5, 0x55, 0xE5, 0x55, 0xF5, 0x55,
	// 42-43: scan control
	0x1B, 0x03,
	// 44-46: drive pulse frequencies
	0x00, 0x00, 0x00,
	// 47-49: drive pulse counts
	0x13, 0x13, 0x13,
	// 50-52: drive lines total, on-screen drive lines, sense lines
	0x0F, 0x0F, 0x0A,
	// 53-54: touch and release thresholds
	0x50, 0x30,
	// 55: INT/SITO/RT/ST mode bits
	0x05,
	// 56: low power entry delay (s)
	0x03,
	// 57: refresh rate
	0x64,
	// 58: max touch points
	0x05,
	// 59-62: X max 480, Y max 800 (little-endian)
	0xE0, 0x01, 0x20, 0x03,
	// 63-64: X/Y output thresholds
	0x00, 0x00,
	// 65-68: X/Y smoothing, X/Y smoothing speed limit
	0x32, 0x2C, 0x34, 0x2E,
	// 69-70: reserved
	0x00, 0x00,
	// 71: dropped frames / coordinate window filter
	0x04,
	// 72: large area touch node count
	0x14,
	// 73: debounce
	0x22,
	// 74: white noise reduction
	0x04,
	// 75-79: reserved
	0x00, 0x00, 0x00, 0x00, 0x00,
	// 80-83: baseline update timing and control
	0x20, 0x14, 0xEC, 0x01,
	// 84-89: reserved and FPC key settings, unused on this panel
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	// 90-93: key positions
	0x00, 0x00, 0x00, 0x00,
	// 94: key width
	0x0C,
	// 95-96: key press and release thresholds
	0x30, 0x25,
	// 97-98: independent key limits
	0x28, 0x14,
	// 99-103: reserved
	0x00, 0x00, 0x00, 0x00, 0x00,
	// 104: configuration update flag
	0x00,
	// 105: undocumented, must stay 0x01
	0x01,
}

// Waveshare7 is the table shipped with the Waveshare 7" panel firmware.
var Waveshare7 = New("waveshare-7inch", 1, waveshare7[:])
