package survey

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/sajal/assesshub/internal/database/models"
	"github.com/sajal/assesshub/internal/storage"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// Geometry answers are fixed to WGS 84.
const locationSRID = 4326

const dateLayout = "2006-01-02"

// Answer is the codec's view of a submitted or stored survey answer.
type Answer struct {
	Question *models.Question
	Type     models.AnswerType
	Raw      *string
	Options  []models.Option
}

// Codec validates raw answers against their question's declared type and
// converts stored answers into their display representation. One kind per
// answer type; dispatch goes through the kinds registry.
type Codec struct {
	store storage.Store
}

func NewCodec(store storage.Store) *Codec {
	return &Codec{store: store}
}

type answerKind interface {
	// payload reports whether the kind stores data in the answer column.
	payload() bool
	validate(ctx context.Context, c *Codec, a Answer) error
	format(ctx context.Context, c *Codec, a Answer) (interface{}, error)
}

var kinds = map[models.AnswerType]answerKind{
	models.AnswerTypeBoolean:        booleanKind{},
	models.AnswerTypeDate:           dateKind{},
	models.AnswerTypeDescription:    descriptionKind{},
	models.AnswerTypeSingleImage:    imageKind{single: true},
	models.AnswerTypeMultipleImage:  imageKind{},
	models.AnswerTypeLocation:       locationKind{},
	models.AnswerTypeNumber:         numberKind{},
	models.AnswerTypeText:           textKind{},
	models.AnswerTypeSingleOption:   optionKind{single: true},
	models.AnswerTypeMultipleOption: optionKind{},
}

// Validate checks a (question, answer_type, raw answer, options) tuple.
// The returned error is a *ValidationError for client-correctable input.
func (c *Codec) Validate(ctx context.Context, a Answer) error {
	if a.Question == nil {
		return fmt.Errorf("answer has no question")
	}
	k, ok := kinds[a.Type]
	if !ok {
		return fieldError("answer_type", "unknown answer type")
	}
	if a.Type != a.Question.AnswerType {
		return fieldError("answer_type", "answer type of question and provided answer_type value doesn't match")
	}
	if !k.payload() && a.Raw != nil {
		return fieldError("answer", "answer field cannot be present for provided answer_type")
	}
	return k.validate(ctx, c, a)
}

// Format converts a stored answer into its display representation: absolute
// URLs for images, a GeoJSON geometry for locations, the coerced typed value
// for primitives and nil for description/option kinds (options are exposed
// separately).
func (c *Codec) Format(ctx context.Context, a Answer) (interface{}, error) {
	k, ok := kinds[a.Type]
	if !ok {
		return nil, fmt.Errorf("unknown answer type %q", a.Type)
	}
	return k.format(ctx, c, a)
}

type booleanKind struct{}

func (booleanKind) payload() bool { return true }

func (booleanKind) validate(ctx context.Context, c *Codec, a Answer) error {
	if a.Raw == nil {
		return nil
	}
	if _, err := parseBool(*a.Raw); err != nil {
		return fieldError("answer", "not a valid boolean value")
	}
	return nil
}

func (booleanKind) format(ctx context.Context, c *Codec, a Answer) (interface{}, error) {
	if a.Raw == nil {
		return nil, nil
	}
	return parseBool(*a.Raw)
}

type dateKind struct{}

func (dateKind) payload() bool { return true }

func (dateKind) validate(ctx context.Context, c *Codec, a Answer) error {
	if a.Raw == nil {
		return nil
	}
	if _, err := time.Parse(dateLayout, *a.Raw); err != nil {
		return fieldError("answer", "date has wrong format, use YYYY-MM-DD")
	}
	return nil
}

func (dateKind) format(ctx context.Context, c *Codec, a Answer) (interface{}, error) {
	if a.Raw == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *a.Raw)
	if err != nil {
		return nil, err
	}
	return t.Format(dateLayout), nil
}

type numberKind struct{}

func (numberKind) payload() bool { return true }

func (numberKind) validate(ctx context.Context, c *Codec, a Answer) error {
	if a.Raw == nil {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(*a.Raw), 64); err != nil {
		return fieldError("answer", "a valid number is required")
	}
	return nil
}

func (numberKind) format(ctx context.Context, c *Codec, a Answer) (interface{}, error) {
	if a.Raw == nil {
		return nil, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(*a.Raw), 64)
}

type textKind struct{}

func (textKind) payload() bool { return true }

func (textKind) validate(ctx context.Context, c *Codec, a Answer) error {
	if a.Raw == nil {
		return nil
	}
	if strings.TrimSpace(*a.Raw) == "" {
		return fieldError("answer", "this field may not be blank")
	}
	return nil
}

func (textKind) format(ctx context.Context, c *Codec, a Answer) (interface{}, error) {
	if a.Raw == nil {
		return nil, nil
	}
	return *a.Raw, nil
}

// descriptionKind carries no payload at all; the question itself is the
// content.
type descriptionKind struct{}

func (descriptionKind) payload() bool { return false }

func (descriptionKind) validate(ctx context.Context, c *Codec, a Answer) error {
	return nil
}

func (descriptionKind) format(ctx context.Context, c *Codec, a Answer) (interface{}, error) {
	return nil, nil
}

type optionKind struct {
	single bool
}

func (optionKind) payload() bool { return false }

func (k optionKind) validate(ctx context.Context, c *Codec, a Answer) error {
	if len(a.Options) == 0 {
		return fieldError("options", "options should be present for provided answer_type")
	}
	for _, option := range a.Options {
		if option.QuestionID != a.Question.ID {
			return fieldError("options", "invalid option for question")
		}
	}
	if k.single && len(a.Options) != 1 {
		return fieldError("options", "only one option in list form is supported for question")
	}
	return nil
}

func (optionKind) format(ctx context.Context, c *Codec, a Answer) (interface{}, error) {
	return nil, nil
}

type imageKind struct {
	single bool
}

func (imageKind) payload() bool { return true }

// validate opens every referenced path from the blob store and checks it
// decodes as an image. Bad paths are collected and reported together rather
// than failing on the first one.
func (k imageKind) validate(ctx context.Context, c *Codec, a Answer) error {
	if a.Raw == nil {
		return fieldError("answer", "answer field is required for provided answer_type")
	}
	paths := strings.Split(*a.Raw, ",")
	if k.single && len(paths) != 1 {
		return fieldError("answer", "only one image is supported for question")
	}
	invalid := make(map[string]string)
	for _, path := range paths {
		if err := c.checkImage(ctx, path); err != nil {
			invalid[path] = "invalid image file or image doesn't exist"
		}
	}
	if len(invalid) > 0 {
		return &ValidationError{Field: "answer", Items: invalid}
	}
	return nil
}

func (k imageKind) format(ctx context.Context, c *Codec, a Answer) (interface{}, error) {
	if a.Raw == nil {
		return nil, nil
	}
	if k.single {
		return c.store.URL(*a.Raw), nil
	}
	paths := strings.Split(*a.Raw, ",")
	urls := make([]string, len(paths))
	for i, path := range paths {
		urls[i] = c.store.URL(path)
	}
	return urls, nil
}

func (c *Codec) checkImage(ctx context.Context, path string) error {
	f, err := c.store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, _, err := image.DecodeConfig(f); err != nil {
		return err
	}
	return nil
}

type locationKind struct{}

func (locationKind) payload() bool { return true }

func (locationKind) validate(ctx context.Context, c *Codec, a Answer) error {
	if a.Raw == nil {
		return fieldError("answer", "answer field is required for provided answer_type")
	}
	if _, err := parseGeometry(*a.Raw); err != nil {
		return fieldError("answer", "unable to parse geometry value")
	}
	return nil
}

func (locationKind) format(ctx context.Context, c *Codec, a Answer) (interface{}, error) {
	if a.Raw == nil {
		return nil, nil
	}
	g, err := parseGeometry(*a.Raw)
	if err != nil {
		return nil, err
	}
	data, err := geojson.Marshal(g)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// parseGeometry accepts WKT or GeoJSON point strings and pins the result to
// the answer SRID.
func parseGeometry(raw string) (*geom.Point, error) {
	g, err := wkt.Unmarshal(raw)
	if err != nil {
		if err := geojson.Unmarshal([]byte(raw), &g); err != nil {
			return nil, err
		}
	}
	point, ok := g.(*geom.Point)
	if !ok {
		return nil, fmt.Errorf("geometry %q is not a point", raw)
	}
	return point.SetSRID(locationSRID), nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "t", "yes", "y", "on", "1":
		return true, nil
	case "false", "f", "no", "n", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", raw)
}
