package trace

import (
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// CaptureVersion is bumped when the capture layout changes
const CaptureVersion = 1

// Capture is a recorded trace as stored on disk
type Capture struct {
	Version   int      `cbor:"1,keyasint"`
	Frequency uint32   `cbor:"2,keyasint,omitempty"`
	Note      string   `cbor:"3,keyasint,omitempty"`
	Samples   []Sample `cbor:"4,keyasint"`
}

var (
	captureEncMode cbor.EncMode
	captureDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsEmpty,
	}
	captureEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}
	captureDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR decoder mode: %v", err))
	}
}

// NewCapture wraps samples recorded at the given bus frequency
func NewCapture(hz uint32, samples []Sample) *Capture {
	return &Capture{Version: CaptureVersion, Frequency: hz, Samples: samples}
}

// Save writes c as a single CBOR item
func (c *Capture) Save(w io.Writer) error {
	return captureEncMode.NewEncoder(w).Encode(c)
}

// Load reads one capture written by Save
func Load(r io.Reader) (*Capture, error) {
	var c Capture
	if err := captureDecMode.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	if c.Version != CaptureVersion {
		return nil, fmt.Errorf("unsupported capture version %d", c.Version)
	}
	return &c, nil
}

// SaveFile writes c to path
func (c *Capture) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create capture: %w", err)
	}
	if err := c.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("write capture: %w", err)
	}
	return f.Close()
}

// LoadFile reads a capture from path
func LoadFile(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()
	return Load(f)
}
