// Package export serializes search results for download or inline
// display. Three shapes are supported: CSV with a fixed column order,
// indented JSON with explicit nulls for absent values, and a compact
// one-line-per-record text form. The text form stays inline until it
// outgrows a size threshold, at which point it is demoted to a file
// attachment; "txt" forces the attachment.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/optiframe/optiframe/internal/inventory"
)

// ErrNoData signals that the filtered result set was empty. Callers
// surface this as "nothing to export", distinct from a successful export
// of zero-length content.
var ErrNoData = errors.New("no data to export")

// Kind selects the export shape.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindJSON Kind = "json"
	KindText Kind = "text"
	KindTxt  Kind = "txt"
)

// ParseKind resolves a user-supplied format name. Unknown names fall
// back to CSV.
func ParseKind(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindJSON:
		return KindJSON
	case KindText:
		return KindText
	case KindTxt:
		return KindTxt
	default:
		return KindCSV
	}
}

// Artifact is a rendered export. When Inline is true the payload is
// small enough to send as a plain message; otherwise it should be
// delivered as a file attachment under Filename.
type Artifact struct {
	Data     []byte
	Filename string
	Inline   bool
}

// columns is the fixed header order for tabular output.
var columns = []string{
	"id", "brand", "model_code", "material", "lens_width", "bridge_size",
	"temple_length", "color", "shape", "gender", "price", "stock", "notes",
	"created_at",
}

// Format renders the frames in the requested shape. inlineThreshold is
// the rendered size in bytes above which the text form becomes an
// attachment.
func Format(frames []inventory.Frame, kind Kind, inlineThreshold int) (*Artifact, error) {
	if len(frames) == 0 {
		return nil, ErrNoData
	}

	switch kind {
	case KindJSON:
		return formatJSON(frames)
	case KindText, KindTxt:
		return formatText(frames, kind, inlineThreshold)
	default:
		return formatCSV(frames)
	}
}

func formatCSV(frames []inventory.Frame) (*Artifact, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i := range frames {
		if err := w.Write(csvRow(&frames[i])); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return &Artifact{
		Data:     buf.Bytes(),
		Filename: filename(len(frames), "csv"),
	}, nil
}

func csvRow(f *inventory.Frame) []string {
	return []string{
		strconv.FormatInt(f.ID, 10),
		textOrEmpty(f.Brand),
		f.ModelCode,
		f.Material,
		intOrEmpty(f.LensWidth),
		intOrEmpty(f.BridgeSize),
		intOrEmpty(f.TempleLength),
		textOrEmpty(f.Color),
		textOrEmpty(f.Shape),
		textOrEmpty(f.Gender),
		floatOrEmpty(f.Price),
		strconv.Itoa(f.Stock),
		textOrEmpty(f.Notes),
		f.CreatedAt.Format(time.RFC3339),
	}
}

// frameJSON mirrors the persisted column layout with explicit nulls for
// absent values.
type frameJSON struct {
	ID           int64    `json:"id"`
	Brand        *string  `json:"brand"`
	ModelCode    string   `json:"model_code"`
	Material     string   `json:"material"`
	LensWidth    *int     `json:"lens_width"`
	BridgeSize   *int     `json:"bridge_size"`
	TempleLength *int     `json:"temple_length"`
	Color        *string  `json:"color"`
	Shape        *string  `json:"shape"`
	Gender       *string  `json:"gender"`
	Price        *float64 `json:"price"`
	Stock        int      `json:"stock"`
	Notes        *string  `json:"notes"`
	CreatedAt    string   `json:"created_at"`
}

func formatJSON(frames []inventory.Frame) (*Artifact, error) {
	out := make([]frameJSON, len(frames))
	for i := range frames {
		f := &frames[i]
		out[i] = frameJSON{
			ID:           f.ID,
			Brand:        f.Brand,
			ModelCode:    f.ModelCode,
			Material:     f.Material,
			LensWidth:    f.LensWidth,
			BridgeSize:   f.BridgeSize,
			TempleLength: f.TempleLength,
			Color:        f.Color,
			Shape:        f.Shape,
			Gender:       f.Gender,
			Price:        f.Price,
			Stock:        f.Stock,
			Notes:        f.Notes,
			CreatedAt:    f.CreatedAt.Format(time.RFC3339),
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}

	return &Artifact{
		Data:     data,
		Filename: filename(len(frames), "json"),
	}, nil
}

func formatText(frames []inventory.Frame, kind Kind, inlineThreshold int) (*Artifact, error) {
	lines := make([]string, len(frames))
	for i := range frames {
		lines[i] = ShortLine(&frames[i])
	}
	data := []byte(strings.Join(lines, "\n"))

	// "txt" always attaches; "text" attaches only once the payload is
	// too large for an inline message.
	inline := kind == KindText && len(data) <= inlineThreshold

	return &Artifact{
		Data:     data,
		Filename: filename(len(frames), "txt"),
		Inline:   inline,
	}, nil
}

// ShortLine renders the compact one-line form of a frame used by the
// text export and several list views.
func ShortLine(f *inventory.Frame) string {
	price := "-"
	if f.Price != nil && *f.Price != 0 {
		price = strconv.FormatFloat(*f.Price, 'g', -1, 64)
	}
	return fmt.Sprintf("%d: %s %s stock=%d price=%s", f.ID, f.Label(), f.ModelCode, f.Stock, price)
}

func filename(count int, ext string) string {
	return fmt.Sprintf("frames_export_%d.%s", count, ext)
}

func textOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intOrEmpty(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func floatOrEmpty(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'g', -1, 64)
}
