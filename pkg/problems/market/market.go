// Package market evolves a rule based trading strategy over a series of
// closing prices. The strategy maps each up/down pattern of the last four
// price moves to an action: buy, sell or hold.
package market

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

const (
	Buy  = 'B'
	Sell = 'S'
	Hold = 'H'

	// Window is the number of price moves a rule looks at.
	Window = 4
)

var ErrTooFewPrices = fmt.Errorf("market needs at least %d closing prices", Window+1)

var alphabet = []byte{Buy, Sell, Hold}

// Market holds the closing prices a strategy is simulated over.
type Market struct {
	prices []float64
}

// Result is the outcome of simulating a strategy.
type Result struct {
	Trades int
	Equity float64
}

// NewFromPrices returns a market over prices, oldest first.
func NewFromPrices(prices []float64) (*Market, error) {
	if len(prices) < Window+1 {
		return nil, ErrTooFewPrices
	}
	for i, p := range prices {
		if !(p > 0) {
			return nil, fmt.Errorf("price %d is not positive: %v", i, p)
		}
	}

	m := &Market{prices: make([]float64, len(prices))}
	copy(m.prices, prices)
	return m, nil
}

// Load reads the close column of one or more CSV files and concatenates
// the prices in order.
func Load(logger *logrus.Logger, files ...string) (*Market, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("market requires at least one price file")
	}
	if logger == nil {
		logger = logrus.New()
	}

	var prices []float64
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		parsed, err := Parse(logger.WithField("file", name), f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		prices = append(prices, parsed...)
		logger.WithFields(logrus.Fields{
			"file":   name,
			"prices": len(parsed),
		}).Debug("Read price file")
	}

	return NewFromPrices(prices)
}

// Parse reads the close column of a CSV document with a header row. Rows
// without a usable price are skipped.
func Parse(logger logrus.FieldLogger, r io.Reader) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, err
	}
	column := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "close") {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, fmt.Errorf("no close column in header %v", header)
	}

	var prices []float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		if column >= len(record) {
			logger.Warnf("Skipping short row on line %d", line)
			continue
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(record[column]), 64)
		if err != nil || !(price > 0) {
			logger.Warnf("Skipping unusable price %q on line %d", record[column], line)
			continue
		}
		prices = append(prices, price)
	}

	return prices, nil
}

// Prices returns a copy of the closing prices.
func (m *Market) Prices() []float64 {
	out := make([]float64, len(m.prices))
	copy(out, m.prices)
	return out
}

// Pattern encodes the moves into prices[t] as a rule index. Bit k, counted
// from the oldest move, is set when the price went up.
func Pattern(prices []float64, t int) int {
	idx := 0
	for i := t - Window + 1; i <= t; i++ {
		idx <<= 1
		if prices[i] > prices[i-1] {
			idx |= 1
		}
	}
	return idx
}

// Simulate trades one unit of cash all in and all out following the rules
// in genes, and values any open position at the last price.
func (m *Market) Simulate(genes []byte) Result {
	cash, shares := 1.0, 0.0
	trades := 0

	for t := Window; t < len(m.prices); t++ {
		price := m.prices[t]
		switch genes[Pattern(m.prices, t)] {
		case Buy:
			if cash > 0 {
				shares, cash = cash/price, 0
				trades++
			}
		case Sell:
			if shares > 0 {
				cash, shares = shares*price, 0
				trades++
			}
		}
	}

	return Result{
		Trades: trades,
		Equity: cash + shares*m.prices[len(m.prices)-1],
	}
}

// Fitness is the final equity, and Invalid for strategies that never trade.
func (m *Market) Fitness(genes []byte) genetic.Fitness {
	result := m.Simulate(genes)
	if result.Trades == 0 {
		return genetic.Invalid
	}
	return genetic.Valid(result.Equity)
}

func (m *Market) Alphabet() []byte {
	return alphabet
}

// Len is one rule per pattern.
func (m *Market) Len() int {
	return 1 << Window
}

func (m *Market) Format(g genetic.Genotype) string {
	result := m.Simulate(g.Genes)
	return fmt.Sprintf("%s: (trades: %d, equity: %.4f, fitness: %s)", g.Genes, result.Trades, result.Equity, m.Fitness(g.Genes))
}
