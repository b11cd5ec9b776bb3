// Package knapsack implements the 0/1 knapsack problem. Gene i is '1' when
// item i is packed.
package knapsack

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/AlexanderDJackson/cs467/pkg/genetic"
)

var (
	ErrNoCapacity = errors.New("knapsack capacity is missing or not positive")
	ErrNoItems    = errors.New("knapsack has no items")
)

var alphabet = []byte("01")

// Item is a candidate for the knapsack.
type Item struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Value  int    `json:"value"`
}

// Knapsack holds the items and the weight capacity.
type Knapsack struct {
	items    []Item
	capacity int
}

// NewFromItems returns a knapsack with the given capacity and items.
func NewFromItems(capacity int, items []Item) (*Knapsack, error) {
	if capacity <= 0 {
		return nil, ErrNoCapacity
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for _, item := range items {
		if item.Weight < 0 || item.Value < 0 {
			return nil, fmt.Errorf("item %q has a negative weight or value", item.Name)
		}
	}

	k := &Knapsack{capacity: capacity, items: make([]Item, len(items))}
	copy(k.items, items)
	return k, nil
}

// Load reads the knapsack from one or more files. Items accumulate across
// files and the last capacity line wins.
func Load(logger *logrus.Logger, files ...string) (*Knapsack, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("knapsack requires an input file")
	}
	if logger == nil {
		logger = logrus.New()
	}

	var items []Item
	capacity := 0
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		parsed, c, err := Parse(logger.WithField("file", name), f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		items = append(items, parsed...)
		if c > 0 {
			capacity = c
		}
		logger.WithFields(logrus.Fields{
			"file":  name,
			"items": len(parsed),
		}).Debug("Read knapsack file")
	}

	return NewFromItems(capacity, items)
}

// Parse reads comma separated lines. A line "name, weight, value" adds an
// item and a line "name, capacity" sets the capacity. Spaces are ignored and
// items with unparsable numbers are skipped.
func Parse(logger logrus.FieldLogger, r io.Reader) ([]Item, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	var items []Item
	capacity := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		for i := range record {
			record[i] = strings.ReplaceAll(record[i], " ", "")
		}
		line, _ := reader.FieldPos(0)

		switch {
		case len(record) > 2:
			weight, err := strconv.Atoi(record[1])
			if err != nil {
				logger.WithError(err).Errorf("Failed to parse weight on line %d", line)
				continue
			}
			value, err := strconv.Atoi(record[2])
			if err != nil {
				logger.WithError(err).Errorf("Failed to parse value on line %d", line)
				continue
			}
			items = append(items, Item{Name: record[0], Weight: weight, Value: value})
		case len(record) == 2:
			c, err := strconv.Atoi(record[1])
			if err != nil {
				return nil, 0, fmt.Errorf("failed to get capacity from line %d: %w", line, err)
			}
			if c <= 0 {
				return nil, 0, ErrNoCapacity
			}
			capacity = c
		}
	}

	return items, capacity, nil
}

// Items returns a copy of the items.
func (k *Knapsack) Items() []Item {
	out := make([]Item, len(k.items))
	copy(out, k.items)
	return out
}

// Capacity returns the weight limit.
func (k *Knapsack) Capacity() int {
	return k.capacity
}

// totals sums the weight and value of the packed items.
func (k *Knapsack) totals(genes []byte) (weight, value int) {
	for i, gene := range genes {
		if i < len(k.items) && gene == '1' {
			weight += k.items[i].Weight
			value += k.items[i].Value
		}
	}
	return weight, value
}

// Fitness is Invalid when the packed weight exceeds the capacity. Otherwise
// the value per unit of capacity v is squashed to v/(1+v).
func (k *Knapsack) Fitness(genes []byte) genetic.Fitness {
	weight, value := k.totals(genes)
	if weight > k.capacity {
		return genetic.Invalid
	}

	v := float64(value) / float64(k.capacity)
	return genetic.Valid(v / (1 + v))
}

func (k *Knapsack) Alphabet() []byte {
	return alphabet
}

func (k *Knapsack) Len() int {
	return len(k.items)
}

func (k *Knapsack) Format(g genetic.Genotype) string {
	weight, value := k.totals(g.Genes)
	return fmt.Sprintf("%s: (weight: %d, value: %d, fitness: %s)", g.Genes, weight, value, k.Fitness(g.Genes))
}

// Packed returns the items selected by genes.
func (k *Knapsack) Packed(genes []byte) []Item {
	var out []Item
	for i, gene := range genes {
		if i < len(k.items) && gene == '1' {
			out = append(out, k.items[i])
		}
	}
	return out
}
