package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Date    string  `json:"date" validate:"required,datetime=2006-01-02"`
	Amount  float64 `json:"amount" validate:"gte=0"`
	OffDays []int   `json:"offDays" validate:"dive,weekday"`
}

func TestValidateStructValid(t *testing.T) {
	errs := ValidateStruct(sample{Date: "2025-12-15", Amount: 10, OffDays: []int{0, 6}})
	assert.Nil(t, errs)
}

func TestValidateStructReportsFields(t *testing.T) {
	errs := ValidateStruct(sample{Date: "15/12/2025", Amount: -1, OffDays: []int{7}})
	require.Len(t, errs, 3)

	byTag := make(map[string]*ErrorResponse, len(errs))
	for _, e := range errs {
		byTag[e.Tag] = e
	}

	assert.Equal(t, "date", byTag["datetime"].Field)
	assert.Equal(t, "amount", byTag["gte"].Field)
	assert.Equal(t, "offDays[0]", byTag["weekday"].Field)
	assert.Contains(t, byTag["weekday"].Msg, "between 0 (Sunday) and 6 (Saturday)")
}

func TestValidateStructRequired(t *testing.T) {
	errs := ValidateStruct(sample{})
	require.Len(t, errs, 1)
	assert.Equal(t, "required", errs[0].Tag)
	assert.Equal(t, "field 'date' is required", errs[0].Msg)
}
