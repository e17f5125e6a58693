// Package trace records SDA/SCL levels and checks them against the I2C line
// rules. It is the host-side stand-in for a logic analyser.
package trace

// Sample is the level of both lines from time T until the next sample
type Sample struct {
	T   uint32 `cbor:"1,keyasint"`
	SDA bool   `cbor:"2,keyasint"`
	SCL bool   `cbor:"3,keyasint"`
}

// Recorder keeps one sample per line change
type Recorder struct {
	samples []Sample
}

// NewRecorder creates a recorder whose first sample is the idle bus
func NewRecorder() *Recorder {
	return &Recorder{samples: []Sample{{SDA: true, SCL: true}}}
}

// Record appends a sample if either level differs from the last one
func (r *Recorder) Record(t uint32, sda, scl bool) {
	if n := len(r.samples); n > 0 {
		last := r.samples[n-1]
		if last.SDA == sda && last.SCL == scl {
			return
		}
	}
	r.samples = append(r.samples, Sample{T: t, SDA: sda, SCL: scl})
}

// Samples returns a copy of the recorded samples
func (r *Recorder) Samples() []Sample {
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Len returns the number of samples recorded so far
func (r *Recorder) Len() int {
	return len(r.samples)
}

// Since returns the samples recorded after the first n
func (r *Recorder) Since(n int) []Sample {
	if n >= len(r.samples) {
		return nil
	}
	out := make([]Sample, len(r.samples)-n)
	copy(out, r.samples[n:])
	return out
}

// Reset drops everything but the current level
func (r *Recorder) Reset() {
	if n := len(r.samples); n > 0 {
		r.samples = r.samples[n-1:]
		r.samples[0].T = 0
	}
}

// Last returns the current level of both lines
func (r *Recorder) Last() Sample {
	if len(r.samples) == 0 {
		return Sample{SDA: true, SCL: true}
	}
	return r.samples[len(r.samples)-1]
}

// Idle reports whether both lines are released
func (s Sample) Idle() bool {
	return s.SDA && s.SCL
}
