// Package cli implements the interactive terminal front end: prompt
// driven add and search flows over the inventory engine.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/optiframe/optiframe/internal/inventory"
)

// Prompter reads line-oriented answers from the terminal.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

func (p *Prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// ask prints the prompt and returns the trimmed answer. io.EOF when the
// input stream ends.
func (p *Prompter) ask(prompt string) (string, error) {
	p.printf("%s", prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// askRequired repeats the prompt until a non-empty answer arrives.
func (p *Prompter) askRequired(prompt string) (string, error) {
	for {
		v, err := p.ask(prompt)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
		p.printf("A value is required.\n")
	}
}

// askInt re-prompts until the answer parses or is left blank.
func (p *Prompter) askInt(prompt string) (*int, error) {
	for {
		v, err := p.ask(prompt)
		if err != nil {
			return nil, err
		}
		if v == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			p.printf("Not a whole number, try again.\n")
			continue
		}
		return &n, nil
	}
}

func (p *Prompter) askFloat(prompt string) (*float64, error) {
	for {
		v, err := p.ask(prompt)
		if err != nil {
			return nil, err
		}
		if v == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			p.printf("Not a number, try again.\n")
			continue
		}
		return &f, nil
	}
}

// RunAdd walks through every frame attribute and stores the result.
func RunAdd(ctx context.Context, engine *inventory.Engine, in io.Reader, out io.Writer) error {
	p := NewPrompter(in, out)

	model, err := p.askRequired("Model code: ")
	if err != nil {
		return err
	}
	cand := &inventory.Candidate{ModelCode: &model}

	brand, err := p.ask("Brand (blank for none): ")
	if err != nil {
		return err
	}
	if brand != "" {
		cand.Brand = &brand
	}

	material, err := p.ask("Material (metal/plastic/titanium/combined/other, blank=unknown): ")
	if err != nil {
		return err
	}
	mat := inventory.NormalizeMaterial(material)
	cand.Material = &mat

	if cand.LensWidth, err = p.askInt("Lens width (mm): "); err != nil {
		return err
	}
	if cand.BridgeSize, err = p.askInt("Bridge size (mm): "); err != nil {
		return err
	}
	if cand.TempleLength, err = p.askInt("Temple length (mm): "); err != nil {
		return err
	}

	for _, q := range []struct {
		prompt string
		dst    **string
	}{
		{"Color: ", &cand.Color},
		{"Shape: ", &cand.Shape},
		{"Gender: ", &cand.Gender},
	} {
		v, err := p.ask(q.prompt)
		if err != nil {
			return err
		}
		if v != "" {
			*q.dst = &v
		}
	}

	if cand.Price, err = p.askFloat("Price: "); err != nil {
		return err
	}

	stock := 0
	if n, err := p.askInt("Stock quantity (default 0): "); err != nil {
		return err
	} else if n != nil && *n > 0 {
		stock = *n
	}
	cand.Stock = &stock

	notes, err := p.ask("Notes: ")
	if err != nil {
		return err
	}
	if notes != "" {
		cand.Notes = &notes
	}

	res, err := engine.Upsert(ctx, cand)
	if err != nil {
		return err
	}
	f := res.Frame
	if res.Status == inventory.StatusMerged {
		p.printf("Merged into existing record ID=%d (stock %d -> %d).\n", f.ID, res.PrevStock, f.Stock)
	} else {
		p.printf("Saved new frame ID=%d.\n", f.ID)
	}
	return nil
}

// RunSearch prompts for filters, skipping any value that fails to
// parse, then prints the newest matches.
func RunSearch(ctx context.Context, engine *inventory.Engine, in io.Reader, out io.Writer) error {
	p := NewPrompter(in, out)
	p.printf("Leave a filter blank to skip it.\n")

	var c inventory.Criteria

	for _, q := range []struct {
		prompt string
		dst    **string
	}{
		{"Brand contains: ", &c.Brand},
		{"Model contains: ", &c.ModelCode},
		{"Material contains: ", &c.Material},
		{"Color contains: ", &c.Color},
	} {
		v, err := p.ask(q.prompt)
		if err != nil {
			return err
		}
		if v != "" {
			*q.dst = &v
		}
	}

	lens, err := p.ask("Lens width equals: ")
	if err != nil {
		return err
	}
	if lens != "" {
		if n, err := strconv.Atoi(lens); err == nil {
			c.LensWidth = &n
		} else {
			p.printf("Ignoring lens width %q (not a number).\n", lens)
		}
	}
	for _, q := range []struct {
		prompt string
		dst    **float64
	}{
		{"Min price: ", &c.MinPrice},
		{"Max price: ", &c.MaxPrice},
	} {
		v, err := p.ask(q.prompt)
		if err != nil {
			return err
		}
		if v == "" {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*q.dst = &f
		} else {
			p.printf("Ignoring %q (not a number).\n", v)
		}
	}

	frames, err := engine.Search(ctx, c, 100, inventory.OrderNewestFirst)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		p.printf("No matching frames.\n")
		return nil
	}
	p.printf("Found %d:\n", len(frames))
	for i := range frames {
		p.printf("%s\n", ResultLine(&frames[i]))
	}
	return nil
}

// ResultLine formats a single search hit for terminal output.
func ResultLine(f *inventory.Frame) string {
	return fmt.Sprintf("ID=%d | %s %s | %s | %s-%s-%s | Color: %s | Stock: %d | Price: %s",
		f.ID, f.Label(), f.ModelCode, f.Material,
		dimension(f.LensWidth), dimension(f.BridgeSize), dimension(f.TempleLength),
		orDash(f.Color), f.Stock, price(f.Price))
}

func dimension(n *int) string {
	if n == nil || *n == 0 {
		return "?"
	}
	return strconv.Itoa(*n)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func price(p *float64) string {
	if p == nil || *p == 0 {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}
