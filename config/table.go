// Package config holds GT811 configuration tables: the register bank image
// pushed to the controller at bring-up.
//
// A table is opaque device data. It is identified by name and version and
// protected by a CRC-8 (polynomial 0x07) so a corrupted or edited table file
// is refused before it reaches the bus.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sigurn/crc8"
	"gopkg.in/yaml.v3"
)

// Size is the length of the GT811 configuration register bank.
const Size = 106

// Register is the first register of the configuration bank.
const Register uint16 = 0x06A2

var ErrSize = errors.New("invalid configuration table size")
var ErrChecksum = errors.New("configuration table checksum mismatch")

var crcTable = crc8.MakeTable(crc8.CRC8)

// Checksum returns the CRC-8 of data.
func Checksum(data []byte) uint8 {
	return crc8.Checksum(data, crcTable)
}

// Table is a versioned configuration image.
type Table struct {
	Name     string
	Version  int
	Register uint16
	Checksum uint8
	data     []byte
}

// New builds a table over a copy of data and stamps its checksum.
func New(name string, version int, data []byte) Table {
	d := append([]byte(nil), data...)
	return Table{
		Name:     name,
		Version:  version,
		Register: Register,
		Checksum: Checksum(d),
		data:     d,
	}
}

// Bytes returns a copy of the table payload.
func (t Table) Bytes() []byte {
	return append([]byte(nil), t.data...)
}

func (t Table) Len() int {
	return len(t.data)
}

// Validate checks payload size and checksum.
func (t Table) Validate() error {
	if len(t.data) != Size {
		return fmt.Errorf("%w: %s v%d has %d bytes, expected %d", ErrSize, t.Name, t.Version, len(t.data), Size)
	}
	if sum := Checksum(t.data); sum != t.Checksum {
		return fmt.Errorf("%w: %s v%d computed %#02x, recorded %#02x", ErrChecksum, t.Name, t.Version, sum, t.Checksum)
	}
	return nil
}

func (t Table) String() string {
	return fmt.Sprintf("%s v%d (%d bytes @ %#04x, crc %#02x)", t.Name, t.Version, len(t.data), t.Register, t.Checksum)
}

type tableFile struct {
	Name     string `yaml:"name"`
	Version  int    `yaml:"version"`
	Register string `yaml:"register"`
	Checksum string `yaml:"checksum"`
	Data     string `yaml:"data"`
}

const bytesPerLine = 16

// Encode writes the table as YAML with the payload as hex lines.
func (t Table) Encode(w io.Writer) error {
	var data strings.Builder
	for i := 0; i < len(t.data); i += bytesPerLine {
		end := min(i+bytesPerLine, len(t.data))
		data.WriteString(hex.EncodeToString(t.data[i:end]))
		data.WriteString("\n")
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err := enc.Encode(tableFile{
		Name:     t.Name,
		Version:  t.Version,
		Register: fmt.Sprintf("0x%04X", t.Register),
		Checksum: fmt.Sprintf("0x%02X", t.Checksum),
		Data:     data.String(),
	})
	if err != nil {
		return fmt.Errorf("could not encode table: %w", err)
	}
	return enc.Close()
}

// Load reads a YAML table and validates it.
func Load(r io.Reader) (Table, error) {
	var f tableFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return Table{}, fmt.Errorf("could not decode table: %w", err)
	}
	data, err := hex.DecodeString(strings.Join(strings.Fields(f.Data), ""))
	if err != nil {
		return Table{}, fmt.Errorf("invalid table data: %w", err)
	}
	reg := Register
	if f.Register != "" {
		v, err := strconv.ParseUint(f.Register, 0, 16)
		if err != nil {
			return Table{}, fmt.Errorf("invalid register: %w", err)
		}
		reg = uint16(v)
	}
	t := Table{Name: f.Name, Version: f.Version, Register: reg, data: data}
	if f.Checksum == "" {
		t.Checksum = Checksum(data)
	} else {
		v, err := strconv.ParseUint(f.Checksum, 0, 8)
		if err != nil {
			return Table{}, fmt.Errorf("invalid checksum: %w", err)
		}
		t.Checksum = uint8(v)
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}
