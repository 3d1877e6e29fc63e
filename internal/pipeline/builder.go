package pipeline

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
)

const (
	defaultCategory   = "General Learning"
	defaultDifficulty = domain.DifficultyIntermediate

	maxPassingScore = 100
)

// RawGenerationInput is the untrusted admin form payload. Economic values may
// arrive as numbers or numeric strings; everything else is plain text.
type RawGenerationInput struct {
	ContentKind    string          `json:"content_kind"`
	Difficulty     string          `json:"difficulty"`
	Category       string          `json:"category"`
	PointsRequired *domain.FlexInt `json:"points_required,omitempty"`
	PointsReward   *domain.FlexInt `json:"points_reward,omitempty"`
	PassingScore   *domain.FlexInt `json:"passing_score,omitempty"`
	SourceVideoID  string          `json:"source_video_id,omitempty"`
	SourceTitle    string          `json:"source_video_title,omitempty"`
}

// Builder validates raw input and packages it into an immutable
// GenerationRequest. All rejections happen locally, before any network call.
type Builder struct {
	validate *validator.Validate
	titler   cases.Caser
}

func NewBuilder() *Builder {
	return &Builder{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		titler:   cases.Title(language.English),
	}
}

// Build returns a validated request or a *domain.ValidationError.
func (b *Builder) Build(input RawGenerationInput) (domain.GenerationRequest, error) {
	fields := map[string]string{}

	kind := domain.ContentKind(strings.ToLower(strings.TrimSpace(input.ContentKind)))
	if !kind.Valid() {
		fields["content_kind"] = "must be quest or quiz"
	}

	difficulty := defaultDifficulty
	if raw := strings.ToLower(strings.TrimSpace(input.Difficulty)); raw != "" {
		switch domain.Difficulty(raw) {
		case domain.DifficultyBeginner, domain.DifficultyIntermediate, domain.DifficultyAdvanced:
			difficulty = domain.Difficulty(raw)
		default:
			fields["difficulty"] = "must be beginner, intermediate or advanced"
		}
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = defaultCategory
	} else {
		category = b.titler.String(strings.ToLower(category))
	}

	economics := domain.EconomicParams{}
	if v, msg := checkPoints(input.PointsRequired); msg != "" {
		fields["points_required"] = msg
	} else {
		economics.PointsRequired = v
	}
	if v, msg := checkPoints(input.PointsReward); msg != "" {
		fields["points_reward"] = msg
	} else {
		economics.PointsReward = v
	}
	if v, msg := checkPoints(input.PassingScore); msg != "" {
		fields["passing_score"] = msg
	} else {
		if v != nil && *v > maxPassingScore {
			fields["passing_score"] = "must be between 0 and 100"
		} else {
			economics.PassingScore = v
		}
	}

	var sourceRef *domain.VideoRef
	if videoID := strings.TrimSpace(input.SourceVideoID); videoID != "" {
		sourceRef = &domain.VideoRef{VideoID: videoID, Title: strings.TrimSpace(input.SourceTitle)}
	}
	if kind == domain.ContentKindQuiz && sourceRef == nil {
		fields["source_video_id"] = "a source video is required for quiz generation"
	}

	if len(fields) > 0 {
		return domain.GenerationRequest{}, &domain.ValidationError{Fields: fields}
	}

	req := domain.GenerationRequest{
		Kind:       kind,
		Difficulty: difficulty,
		Category:   category,
		Economics:  economics,
		SourceRef:  sourceRef,
	}
	if err := b.validate.Struct(req); err != nil {
		return domain.GenerationRequest{}, translateValidatorError(err)
	}
	return req, nil
}

func checkPoints(v *domain.FlexInt) (*int, string) {
	if v == nil {
		return nil, ""
	}
	n := v.Int()
	if n < 0 {
		return nil, "must be a non-negative integer"
	}
	return &n, ""
}

func translateValidatorError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError("request", err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if":
			fields[strings.ToLower(fe.Field())] = "is required"
		case "oneof":
			fields[strings.ToLower(fe.Field())] = "must be one of: " + fe.Param()
		default:
			fields[strings.ToLower(fe.Field())] = "is invalid"
		}
	}
	return &domain.ValidationError{Fields: fields}
}
