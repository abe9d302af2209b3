package scoring

import (
	"encoding/json"
	"math"
	"testing"

	"career-readiness/internal/common/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answersWithWeight selects the option of the given weight in every category.
func answersWithWeight(r *Rubric, weight int) map[string]string {
	out := map[string]string{}
	for _, c := range r.Categories {
		for _, o := range c.Options {
			if o.Weight == weight {
				out[c.Key] = o.Text
			}
		}
	}
	return out
}

func TestRubrics_AllTypesRegistered(t *testing.T) {
	for _, typ := range []string{"ccrl", "cdrl", "ctrl", "fjrl", "ijrl", "irl", "rrl"} {
		r, err := RubricFor(typ)
		require.NoError(t, err, typ)
		assert.NoError(t, r.Validate())
		assert.NotEmpty(t, r.Title)
		assert.Equal(t, len(r.Categories)*5, r.MaxPossibleScore())
	}
	assert.Len(t, Rubrics(), 7)

	_, err := RubricFor("xyz")
	assert.Error(t, err)
}

func TestScore(t *testing.T) {
	ccrl, err := RubricFor("ccrl")
	require.NoError(t, err)

	tests := []struct {
		name           string
		answers        map[string]string
		wantRaw        int
		wantPercentage int
		wantUnmatched  int
	}{
		{
			name:           "all middle answers",
			answers:        answersWithWeight(ccrl, 3),
			wantRaw:        21,
			wantPercentage: 60,
		},
		{
			name:           "all best answers",
			answers:        answersWithWeight(ccrl, 5),
			wantRaw:        35,
			wantPercentage: 100,
		},
		{
			name:           "nothing answered",
			answers:        map[string]string{},
			wantRaw:        0,
			wantPercentage: 0,
			wantUnmatched:  7,
		},
		{
			name: "edited rubric text contributes zero",
			answers: func() map[string]string {
				a := answersWithWeight(ccrl, 5)
				a["networking"] = "I have a strong network"
				return a
			}(),
			wantRaw:        30,
			wantPercentage: 86,
			wantUnmatched:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := Score(ccrl, tt.answers)
			assert.Equal(t, tt.wantRaw, fs.RawTotalScore)
			assert.Equal(t, 35, fs.MaxPossibleScore)
			assert.Equal(t, tt.wantPercentage, fs.FormPercentage)
			assert.Len(t, fs.Unmatched, tt.wantUnmatched)
			assert.Len(t, fs.CategoryWeights, 7)
		})
	}
}

func TestScore_PercentageAlwaysInRange(t *testing.T) {
	for _, r := range Rubrics() {
		for w := 1; w <= 5; w++ {
			fs := Score(r, answersWithWeight(r, w))
			assert.GreaterOrEqual(t, fs.FormPercentage, 0)
			assert.LessOrEqual(t, fs.FormPercentage, 100)
			assert.Equal(t, w*len(r.Categories), fs.RawTotalScore)
		}
	}
}

func TestScore_EmptyRubric(t *testing.T) {
	fs := Score(&Rubric{Type: "empty"}, map[string]string{"a": "b"})
	assert.Equal(t, 0, fs.MaxPossibleScore)
	assert.Equal(t, 0, fs.FormPercentage)
}

func TestEndToEnd_BlendAndClassify(t *testing.T) {
	ccrl, err := RubricFor("ccrl")
	require.NoError(t, err)

	fs := Score(ccrl, answersWithWeight(ccrl, 3))
	require.Equal(t, 60, fs.FormPercentage)

	estimated := ccrl.FinalScore(fs.FormPercentage, nil)
	assert.Equal(t, 64, estimated)
	assert.Equal(t, "Developing Readiness", SixBand.Classify(estimated))
	assert.Equal(t, "Developing Competency", FourBand.Classify(estimated))
	assert.Equal(t, "Developing Readiness", ccrl.Readiness(estimated))

	resume := 90
	assert.Equal(t, 72, ccrl.FinalScore(fs.FormPercentage, &resume))

	cdrl, err := RubricFor("cdrl")
	require.NoError(t, err)
	assert.Nil(t, cdrl.Blend)
	assert.Equal(t, 60, cdrl.FinalScore(60, &resume))
}

func TestLadders(t *testing.T) {
	tests := []struct {
		ladder Ladder
		score  int
		want   string
	}{
		{FourBand, -5, "Early Development"},
		{FourBand, 49, "Early Development"},
		{FourBand, 50, "Developing Competency"},
		{FourBand, 69, "Developing Competency"},
		{FourBand, 70, "Approaching Readiness"},
		{FourBand, 85, "Fully Prepared"},
		{FourBand, 150, "Fully Prepared"},
		{SixBand, 44, "Early Development"},
		{SixBand, 45, "Emerging Readiness"},
		{SixBand, 55, "Developing Readiness"},
		{SixBand, 65, "Approaching Readiness"},
		{SixBand, 75, "Strong Readiness"},
		{SixBand, 85, "Exceptional Readiness"},
		{SixBand, 100, "Exceptional Readiness"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ladder.Classify(tt.score), "%s(%d)", tt.ladder.Name, tt.score)
	}
}

func TestLadders_Monotonic(t *testing.T) {
	for _, l := range []Ladder{FourBand, SixBand} {
		prev := l.Band(-10)
		for s := -10; s <= 110; s++ {
			b := l.Band(s)
			assert.GreaterOrEqual(t, b, prev, "%s at %d", l.Name, s)
			prev = b
		}
		assert.Equal(t, len(l.Bands), l.Band(100))
	}
}

func TestParseBundle(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		ok      bool
		overall int
		cats    map[string]int
	}{
		{
			name:    "overall derived from categories",
			raw:     map[string]interface{}{"categoryScores": map[string]interface{}{"a": 80.0, "b": 60.0, "c": 40.0}},
			ok:      true,
			overall: 60,
			cats:    map[string]int{"a": 80, "b": 60, "c": 40},
		},
		{
			name:    "numeric strings accepted, junk dropped",
			raw:     map[string]interface{}{"categoryScores": map[string]interface{}{"a": "75", "b": "n/a", "c": 101.0}},
			ok:      true,
			overall: 88,
			cats:    map[string]int{"a": 75, "c": 100},
		},
		{
			name:    "explicit overall kept",
			raw:     map[string]interface{}{"overallScore": "66.6"},
			ok:      true,
			overall: 67,
			cats:    map[string]int{},
		},
		{
			name: "nil",
			raw:  nil,
			cats: map[string]int{},
		},
		{
			name: "empty object",
			raw:  map[string]interface{}{},
			cats: map[string]int{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := ParseBundle(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.cats, b.CategoryScores)
			if tt.ok {
				assert.Equal(t, tt.overall, b.OverallScore)
			}
		})
	}
}

func TestParseBundle_FromJSON(t *testing.T) {
	var raw interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"categoryScores":{"x":80,"y":60,"z":40}}`), &raw))
	b, ok := ParseBundle(raw)
	require.True(t, ok)
	assert.Equal(t, 60, b.OverallScore)
	assert.Equal(t, []string{"x", "y", "z"}, b.SortedKeys())

	b, ok = ParseBundle(json.RawMessage(`{"overallScore":12}`))
	require.True(t, ok)
	assert.Equal(t, 12, b.OverallScore)
}

func TestBundleWithDefaults(t *testing.T) {
	b := BundleWithDefaults(nil, []string{"a", "b"}, DefaultCategoryScore)
	assert.Equal(t, map[string]int{"a": 70, "b": 70}, b.CategoryScores)
	assert.Equal(t, 70, b.OverallScore)

	b = BundleWithDefaults(map[string]interface{}{"overallScore": 55}, []string{"a"}, DefaultCategoryScore)
	assert.Equal(t, 55, b.OverallScore)
	assert.Equal(t, map[string]int{"a": 70}, b.CategoryScores)

	again := BundleWithDefaults(b.ToMap(), []string{"a"}, DefaultCategoryScore)
	assert.Equal(t, b, again)

	partial := map[string]interface{}{"categoryScores": map[string]interface{}{"a": 90, "x": 40}}
	b = BundleWithDefaults(partial, []string{"a", "b", "c"}, DefaultCategoryScore)
	assert.Equal(t, map[string]int{"a": 90, "b": 70, "c": 70, "x": 40}, b.CategoryScores)
	assert.Equal(t, 65, b.OverallScore)
}

func TestParseScore_HugeValuesClampHigh(t *testing.T) {
	for _, v := range []interface{}{1e20, "1e30", float32(3e38), int64(math.MaxInt64)} {
		n, ok := ParseScore(v)
		assert.True(t, ok, "%v", v)
		assert.Equal(t, 100, n, "%v", v)
	}
	n, ok := ParseScore(-1e20)
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	b, ok := ParseBundle(map[string]interface{}{"categoryScores": map[string]interface{}{"a": 1e20, "b": "1e30"}})
	require.True(t, ok)
	assert.Equal(t, map[string]int{"a": 100, "b": 100}, b.CategoryScores)
	assert.Equal(t, 100, b.OverallScore)
}

func TestRubricSchema_ValidatesAnswers(t *testing.T) {
	irl, err := RubricFor("irl")
	require.NoError(t, err)

	v, err := validation.Compile(irl.Schema())
	require.NoError(t, err)

	good := map[string]interface{}{}
	for k, text := range answersWithWeight(irl, 4) {
		good[k] = text
	}
	assert.True(t, v.Validate(good).Valid)

	bad := map[string]interface{}{}
	for k, text := range good {
		bad[k] = text
	}
	bad["followUp"] = "Sometimes"
	res := v.Validate(bad)
	assert.False(t, res.Valid)
	assert.Equal(t, "followUp", res.Errors[0].Field)

	delete(good, "communication")
	assert.False(t, v.Validate(good).Valid)
}
