package survey

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/sajal/assesshub/internal/database/models"
	"github.com/sajal/assesshub/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) (*Codec, string) {
	t.Helper()
	dir := t.TempDir()
	return NewCodec(storage.NewLocal(dir, "http://media.test")), dir
}

func writeTestPNG(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func question(answerType models.AnswerType) *models.Question {
	return &models.Question{
		Base:       models.Base{ID: uuid.New()},
		Code:       "q1",
		Title:      "Question",
		AnswerType: answerType,
	}
}

func str(s string) *string { return &s }

func TestValidate_UnknownAnswerType(t *testing.T) {
	codec, _ := newTestCodec(t)

	err := codec.Validate(context.Background(), Answer{
		Question: question(models.AnswerTypeText),
		Type:     "mystery",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "answer_type", verr.Field)
}

func TestValidate_TypeMismatch(t *testing.T) {
	codec, _ := newTestCodec(t)

	err := codec.Validate(context.Background(), Answer{
		Question: question(models.AnswerTypeNumber),
		Type:     models.AnswerTypeText,
		Raw:      str("hello"),
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "doesn't match")
}

func TestValidate_PayloadForbidden(t *testing.T) {
	codec, _ := newTestCodec(t)

	for _, answerType := range []models.AnswerType{
		models.AnswerTypeDescription,
		models.AnswerTypeSingleOption,
		models.AnswerTypeMultipleOption,
	} {
		t.Run(string(answerType), func(t *testing.T) {
			err := codec.Validate(context.Background(), Answer{
				Question: question(answerType),
				Type:     answerType,
				Raw:      str("payload"),
			})

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "answer", verr.Field)
		})
	}
}

func TestValidate_Description_NoPayload(t *testing.T) {
	codec, _ := newTestCodec(t)

	err := codec.Validate(context.Background(), Answer{
		Question: question(models.AnswerTypeDescription),
		Type:     models.AnswerTypeDescription,
	})
	assert.NoError(t, err)
}

func TestValidate_Options(t *testing.T) {
	codec, _ := newTestCodec(t)
	q := question(models.AnswerTypeSingleOption)
	own := models.Option{Base: models.Base{ID: uuid.New()}, QuestionID: q.ID, Code: "a"}
	foreign := models.Option{Base: models.Base{ID: uuid.New()}, QuestionID: uuid.New(), Code: "b"}

	t.Run("no_options", func(t *testing.T) {
		err := codec.Validate(context.Background(), Answer{Question: q, Type: q.AnswerType})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "options", verr.Field)
	})

	t.Run("foreign_option", func(t *testing.T) {
		err := codec.Validate(context.Background(), Answer{
			Question: q,
			Type:     q.AnswerType,
			Options:  []models.Option{foreign},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Message, "invalid option")
	})

	t.Run("single_rejects_many", func(t *testing.T) {
		second := models.Option{Base: models.Base{ID: uuid.New()}, QuestionID: q.ID, Code: "c"}
		err := codec.Validate(context.Background(), Answer{
			Question: q,
			Type:     q.AnswerType,
			Options:  []models.Option{own, second},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Message, "only one option")
	})

	t.Run("single_valid", func(t *testing.T) {
		err := codec.Validate(context.Background(), Answer{
			Question: q,
			Type:     q.AnswerType,
			Options:  []models.Option{own},
		})
		assert.NoError(t, err)
	})

	t.Run("multiple_valid", func(t *testing.T) {
		mq := question(models.AnswerTypeMultipleOption)
		first := models.Option{Base: models.Base{ID: uuid.New()}, QuestionID: mq.ID, Code: "a"}
		second := models.Option{Base: models.Base{ID: uuid.New()}, QuestionID: mq.ID, Code: "b"}
		err := codec.Validate(context.Background(), Answer{
			Question: mq,
			Type:     mq.AnswerType,
			Options:  []models.Option{first, second},
		})
		assert.NoError(t, err)
	})
}

func TestValidate_Images(t *testing.T) {
	codec, dir := newTestCodec(t)
	writeTestPNG(t, dir, "photo.png")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644))

	t.Run("valid_single", func(t *testing.T) {
		err := codec.Validate(context.Background(), Answer{
			Question: question(models.AnswerTypeSingleImage),
			Type:     models.AnswerTypeSingleImage,
			Raw:      str("photo.png"),
		})
		assert.NoError(t, err)
	})

	t.Run("missing_payload", func(t *testing.T) {
		err := codec.Validate(context.Background(), Answer{
			Question: question(models.AnswerTypeSingleImage),
			Type:     models.AnswerTypeSingleImage,
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Message, "required")
	})

	t.Run("single_rejects_many", func(t *testing.T) {
		err := codec.Validate(context.Background(), Answer{
			Question: question(models.AnswerTypeSingleImage),
			Type:     models.AnswerTypeSingleImage,
			Raw:      str("photo.png,photo.png"),
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Message, "only one image")
	})

	t.Run("bad_paths_collected", func(t *testing.T) {
		err := codec.Validate(context.Background(), Answer{
			Question: question(models.AnswerTypeMultipleImage),
			Type:     models.AnswerTypeMultipleImage,
			Raw:      str("photo.png,missing.png,notes.txt"),
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Items, 2)
		assert.Equal(t, "invalid image file or image doesn't exist", verr.Items["missing.png"])
		assert.Equal(t, "invalid image file or image doesn't exist", verr.Items["notes.txt"])
	})
}

func TestValidate_Location(t *testing.T) {
	codec, _ := newTestCodec(t)
	q := question(models.AnswerTypeLocation)

	t.Run("wkt", func(t *testing.T) {
		err := codec.Validate(context.Background(), Answer{
			Question: q, Type: q.AnswerType, Raw: str("POINT (85.3240 27.7172)"),
		})
		assert.NoError(t, err)
	})

	t.Run("geojson", func(t *testing.T) {
		err := codec.Validate(context.Background(), Answer{
			Question: q, Type: q.AnswerType,
			Raw: str(`{"type":"Point","coordinates":[85.324,27.7172]}`),
		})
		assert.NoError(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		err := codec.Validate(context.Background(), Answer{
			Question: q, Type: q.AnswerType, Raw: str("somewhere in Kathmandu"),
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Message, "geometry")
	})

	t.Run("missing_payload", func(t *testing.T) {
		err := codec.Validate(context.Background(), Answer{Question: q, Type: q.AnswerType})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Message, "required")
	})
}

func TestValidate_Primitives(t *testing.T) {
	codec, _ := newTestCodec(t)

	tests := []struct {
		name       string
		answerType models.AnswerType
		raw        *string
		wantErr    bool
	}{
		{"bool_yes", models.AnswerTypeBoolean, str("yes"), false},
		{"bool_zero", models.AnswerTypeBoolean, str("0"), false},
		{"bool_invalid", models.AnswerTypeBoolean, str("maybe"), true},
		{"bool_nil", models.AnswerTypeBoolean, nil, false},
		{"date_valid", models.AnswerTypeDate, str("2024-03-01"), false},
		{"date_invalid", models.AnswerTypeDate, str("01/03/2024"), true},
		{"date_nil", models.AnswerTypeDate, nil, false},
		{"number_valid", models.AnswerTypeNumber, str("42.5"), false},
		{"number_invalid", models.AnswerTypeNumber, str("forty-two"), true},
		{"number_nil", models.AnswerTypeNumber, nil, false},
		{"text_valid", models.AnswerTypeText, str("an answer"), false},
		{"text_blank", models.AnswerTypeText, str("   "), true},
		{"text_nil", models.AnswerTypeText, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := codec.Validate(context.Background(), Answer{
				Question: question(tt.answerType),
				Type:     tt.answerType,
				Raw:      tt.raw,
			})
			if tt.wantErr {
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	codec, dir := newTestCodec(t)
	writeTestPNG(t, dir, "a.png")
	writeTestPNG(t, dir, "b.png")

	t.Run("boolean", func(t *testing.T) {
		v, err := codec.Format(context.Background(), Answer{
			Type: models.AnswerTypeBoolean, Raw: str("yes"),
		})
		require.NoError(t, err)
		assert.Equal(t, true, v)
	})

	t.Run("number", func(t *testing.T) {
		v, err := codec.Format(context.Background(), Answer{
			Type: models.AnswerTypeNumber, Raw: str("12.25"),
		})
		require.NoError(t, err)
		assert.Equal(t, 12.25, v)
	})

	t.Run("single_image_url", func(t *testing.T) {
		v, err := codec.Format(context.Background(), Answer{
			Type: models.AnswerTypeSingleImage, Raw: str("a.png"),
		})
		require.NoError(t, err)
		assert.Equal(t, "http://media.test/a.png", v)
	})

	t.Run("multiple_image_urls", func(t *testing.T) {
		v, err := codec.Format(context.Background(), Answer{
			Type: models.AnswerTypeMultipleImage, Raw: str("a.png,b.png"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"http://media.test/a.png", "http://media.test/b.png"}, v)
	})

	t.Run("location_geojson", func(t *testing.T) {
		v, err := codec.Format(context.Background(), Answer{
			Type: models.AnswerTypeLocation, Raw: str("POINT (85.3240 27.7172)"),
		})
		require.NoError(t, err)
		raw, ok := v.(json.RawMessage)
		require.True(t, ok)
		var decoded struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"`
		}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "Point", decoded.Type)
		assert.InDelta(t, 85.3240, decoded.Coordinates[0], 1e-9)
	})

	t.Run("description_nil", func(t *testing.T) {
		v, err := codec.Format(context.Background(), Answer{Type: models.AnswerTypeDescription})
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("nil_raw_nil", func(t *testing.T) {
		v, err := codec.Format(context.Background(), Answer{Type: models.AnswerTypeText})
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}
