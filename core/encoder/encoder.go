package encoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/powermatch/core/model"
)

var (
	// ErrInvalidRange indicates a Range spec with a non-positive step or
	// with max below min.
	ErrInvalidRange = errors.New("invalid capacity range")
	// ErrLength indicates a chromosome that does not match the layout.
	ErrLength = errors.New("chromosome length mismatch")
)

// Chromosome is one candidate capacity choice, one bit per gene.
type Chromosome []bool

// String renders the chromosome as a string of 0 and 1.
func (c Chromosome) String() string {
	var b strings.Builder
	b.Grow(len(c))
	for _, g := range c {
		if g {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Clone returns a copy of the chromosome.
func (c Chromosome) Clone() Chromosome {
	return append(Chromosome(nil), c...)
}

// Ones counts the set genes in [start, end).
func (c Chromosome) Ones(start, end int) int {
	n := 0
	for _, g := range c[start:end] {
		if g {
			n++
		}
	}
	return n
}

// ParseChromosome parses the output of Chromosome.String.
func ParseChromosome(s string) (Chromosome, error) {
	c := make(Chromosome, len(s))
	for i, r := range s {
		switch r {
		case '0':
		case '1':
			c[i] = true
		default:
			return nil, fmt.Errorf("invalid gene %q at %d", r, i)
		}
	}
	return c, nil
}

// Entry describes one resource of the layout.
type Entry struct {
	Name string
	Spec model.OptimisationSpec
	// Base is added to searched capacity, typically the nameplate of an
	// hourly renewable column.
	Base float64
	// Fixed is the capacity used when the resource is not searched.
	Fixed float64
}

// Segment is the contiguous gene range of one resource.
type Segment struct {
	Entry
	Start int
	End   int
}

// Len is the number of genes owned by the segment.
func (s Segment) Len() int { return s.End - s.Start }

// Capacity is a decoded resource capacity.
type Capacity struct {
	Name     string  `json:"name"`
	Capacity float64 `json:"capacity"`
}

// Capacities is an ordered decode result.
type Capacities []Capacity

// Map indexes the capacities by name.
func (cs Capacities) Map() map[string]float64 {
	m := make(map[string]float64, len(cs))
	for _, c := range cs {
		m[c.Name] = c.Capacity
	}
	return m
}

// Layout maps chromosome positions to resources.
type Layout struct {
	segments []Segment
	length   int
}

// NewLayout assigns each entry its gene range in the given order.
func NewLayout(entries []Entry) (*Layout, error) {
	l := &Layout{segments: make([]Segment, 0, len(entries))}
	for _, e := range entries {
		n := 0
		switch e.Spec.Approach {
		case model.ApproachDiscrete:
			n = len(e.Spec.Blocks)
		case model.ApproachRange:
			if e.Spec.CapacityStep <= 0 || e.Spec.CapacityMax < e.Spec.CapacityMin {
				return nil, fmt.Errorf("%s: %w", e.Name, ErrInvalidRange)
			}
			n = e.Spec.Steps()
		}
		l.segments = append(l.segments, Segment{Entry: e, Start: l.length, End: l.length + n})
		l.length += n
	}
	return l, nil
}

// Len returns the chromosome length the layout expects.
func (l *Layout) Len() int { return l.length }

// Segments returns the resource segments in layout order.
func (l *Layout) Segments() []Segment {
	return append([]Segment(nil), l.segments...)
}

// Decode converts a chromosome into per-resource capacities.
func (l *Layout) Decode(c Chromosome) (Capacities, error) {
	if len(c) != l.length {
		return nil, fmt.Errorf("got %d genes, want %d: %w", len(c), l.length, ErrLength)
	}
	out := make(Capacities, 0, len(l.segments))
	for _, s := range l.segments {
		out = append(out, Capacity{Name: s.Name, Capacity: s.decode(c)})
	}
	return out, nil
}

func (s Segment) decode(c Chromosome) float64 {
	switch s.Spec.Approach {
	case model.ApproachDiscrete:
		capacity := s.Base
		for i, g := range c[s.Start:s.End] {
			if g {
				capacity += s.Spec.Blocks[i]
			}
		}
		return capacity
	case model.ApproachRange:
		return s.Base + s.Spec.CapacityMin + s.Spec.CapacityStep*float64(c.Ones(s.Start, s.End))
	default:
		return s.Fixed
	}
}
