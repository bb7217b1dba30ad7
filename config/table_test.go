package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaveshare7_Golden(t *testing.T) {
	require.NoError(t, Waveshare7.Validate())
	assert.Equal(t, Size, Waveshare7.Len())
	assert.Equal(t, uint8(0xFA), Waveshare7.Checksum)
	assert.Equal(t, uint16(0x06A2), Waveshare7.Register)

	data := Waveshare7.Bytes()
	// coordinate ranges are stored little-endian
	assert.Equal(t, 480, int(data[59])|int(data[60])<<8)
	assert.Equal(t, 800, int(data[61])|int(data[62])<<8)
	assert.Equal(t, byte(0x01), data[Size-1])
}

func TestTable_BytesIsCopy(t *testing.T) {
	data := Waveshare7.Bytes()
	data[0] = 0xFF
	assert.Equal(t, byte(0x12), Waveshare7.Bytes()[0])
	assert.NoError(t, Waveshare7.Validate())
}

func TestTable_Validate(t *testing.T) {
	short := New("short", 1, make([]byte, Size-1))
	assert.ErrorIs(t, short.Validate(), ErrSize)

	tampered := New("tampered", 1, Waveshare7.Bytes())
	tampered.Checksum ^= 0x01
	assert.ErrorIs(t, tampered.Validate(), ErrChecksum)
}

func TestChecksum(t *testing.T) {
	// CRC-8/SMBUS check value
	assert.Equal(t, uint8(0xF4), Checksum([]byte("123456789")))
}

func TestTable_EncodeLoad(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Waveshare7.Encode(&buf))
	assert.Contains(t, buf.String(), "register: \"0x06A2\"")

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, Waveshare7.Name, loaded.Name)
	assert.Equal(t, Waveshare7.Version, loaded.Version)
	assert.Equal(t, Waveshare7.Checksum, loaded.Checksum)
	assert.Equal(t, Waveshare7.Bytes(), loaded.Bytes())
}

func TestLoad_Errors(t *testing.T) {
	var good bytes.Buffer
	require.NoError(t, Waveshare7.Encode(&good))

	tests := []struct {
		name  string
		input string
		err   error
		msg   string
	}{
		{
			name:  "bad checksum",
			input: strings.Replace(good.String(), "0xFA", "0xFB", 1),
			err:   ErrChecksum,
		},
		{
			name:  "truncated data",
			input: "name: x\nversion: 1\ndata: |\n  1210\n",
			err:   ErrSize,
		},
		{
			name:  "not hex",
			input: "name: x\nversion: 1\ndata: zz\n",
			msg:   "invalid table data",
		},
		{
			name:  "bad register",
			input: "name: x\nregister: 0x1FFFF\ndata: 00\n",
			msg:   "invalid register",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestLoad_ChecksumOptional(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Waveshare7.Encode(&buf))
	var lines []string
	for _, l := range strings.Split(buf.String(), "\n") {
		if !strings.HasPrefix(l, "checksum:") {
			lines = append(lines, l)
		}
	}
	loaded, err := Load(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFA), loaded.Checksum)
}
