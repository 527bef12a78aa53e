package checkout

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/domain"
)

func validContact() domain.ContactInfo {
	return domain.ContactInfo{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Address:   "12 Rue de Paris",
		City:      "Paris",
		Email:     "a.b@example.com",
	}
}

func TestValidEmail(t *testing.T) {
	for _, ok := range []string{"a.b@example.com", "jean-luc@mail.example.fr", "x_y@d.io", "a@b.info"} {
		assert.True(t, ValidEmail(ok), ok)
	}
	for _, bad := range []string{"not-an-email", "", "a@b", "a@b.c", "a@b.abcde", "a b@example.com", "@example.com"} {
		assert.False(t, ValidEmail(bad), bad)
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("Paris"))
	assert.True(t, ValidName("x"))
	for _, bad := range []string{"", "Jean-Luc", "Zoé", "Ada ", "R2D2"} {
		assert.False(t, ValidName(bad), bad)
	}
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress("12 Rue de Paris"))
	assert.True(t, ValidAddress("3, rue d'Alsace-Lorraine"))
	assert.False(t, ValidAddress("ab"))
	assert.False(t, ValidAddress("12345"))
	assert.True(t, ValidAddress("123456"))
	assert.False(t, ValidAddress("<script>"))
	assert.False(t, ValidAddress(""))
}

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestRegisterRulesRejectsBadTag(t *testing.T) {
	err := registerRules(validator.New(), map[string]func(string) bool{"": ValidName})
	assert.Error(t, err)
}

func TestValidatorAcceptsValidContact(t *testing.T) {
	res := newValidator(t).Validate(validContact())
	assert.True(t, res.Valid())
	assert.Empty(t, res.Errors)
}

func TestValidatorReportsEachFailingField(t *testing.T) {
	c := validContact()
	c.FirstName = ""
	c.Address = "<script>"
	c.Email = "not-an-email"

	res := newValidator(t).Validate(c)
	require.False(t, res.Valid())
	assert.Len(t, res.Errors, 3)
	assert.Equal(t, "Veuillez entrer un prénom valide", res.Message(FieldFirstName))
	assert.Equal(t, "Veuillez entrer une adresse valide", res.Message(FieldAddress))
	assert.Equal(t, "Veuillez entrer une adresse email valide", res.Message(FieldEmail))
	assert.Empty(t, res.Message(FieldCity))
}

func TestValidatorRejectsEmptyForm(t *testing.T) {
	res := newValidator(t).Validate(domain.ContactInfo{})
	assert.Len(t, res.Errors, len(Fields))
}

func TestValidateField(t *testing.T) {
	v := newValidator(t)

	msg, err := v.ValidateField(FieldCity, "Lyon")
	require.NoError(t, err)
	assert.Empty(t, msg)

	msg, err = v.ValidateField(FieldCity, "Lyon 3")
	require.NoError(t, err)
	assert.Equal(t, "Veuillez entrer une ville valide", msg)

	msg, err = v.ValidateField(FieldLastName, "")
	require.NoError(t, err)
	assert.Equal(t, "Veuillez entrer un nom valide", msg)

	_, err = v.ValidateField("phone", "0600000000")
	assert.ErrorIs(t, err, ErrUnknownField)
}
