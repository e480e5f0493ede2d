package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type priced struct {
	ID       uuid.UUID           `validate:"uuid_required"`
	Price    decimal.Decimal     `validate:"gt=0"`
	Estimate decimal.NullDecimal `validate:"omitempty,gte=0"`
	OpensAt  string              `validate:"omitempty,hhmm"`
	Quantity int                 `validate:"required,gt=0"`
}

func TestValidateStructAcceptsValid(t *testing.T) {
	in := priced{
		ID:       uuid.New(),
		Price:    decimal.RequireFromString("12.50"),
		Estimate: decimal.NewNullDecimal(decimal.Zero),
		OpensAt:  "09:30",
		Quantity: 1,
	}
	assert.Empty(t, ValidateStruct(in))
	assert.Equal(t, "", FirstError(in))
}

func TestValidateStructRejectsBadFields(t *testing.T) {
	cases := map[string]priced{
		"uuid_required": {Price: decimal.NewFromInt(1), Quantity: 1},
		"gt":            {ID: uuid.New(), Price: decimal.Zero, Quantity: 1},
		"gte":           {ID: uuid.New(), Price: decimal.NewFromInt(1), Estimate: decimal.NewNullDecimal(decimal.NewFromInt(-1)), Quantity: 1},
		"hhmm":          {ID: uuid.New(), Price: decimal.NewFromInt(1), OpensAt: "24:00", Quantity: 1},
	}
	for tag, in := range cases {
		t.Run(tag, func(t *testing.T) {
			errs := ValidateStruct(in)
			if assert.NotEmpty(t, errs) {
				assert.Equal(t, tag, errs[0].Tag)
			}
		})
	}
}

func TestIsValidHHMM(t *testing.T) {
	assert.True(t, IsValidHHMM("00:00"))
	assert.True(t, IsValidHHMM("23:59"))
	assert.False(t, IsValidHHMM("7:00"))
	assert.False(t, IsValidHHMM("12:60"))
}
