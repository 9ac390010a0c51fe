package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBusinessTypePossessive(t *testing.T) {
	e := NewExtractor()
	result := e.Extract("hola, tengo un restaurante en el centro", "")
	assert.True(t, result.BusinessType.Accepted())
	assert.Equal(t, "restaurante", result.BusinessType.Value)
}

func TestExtractBusinessTypeRejectsGenericTerms(t *testing.T) {
	e := NewExtractor()
	for _, msg := range []string{
		"tengo un negocio",
		"mi empresa va bien",
		"tengo un local",
		"es un comercio familiar",
	} {
		result := e.Extract(msg, "")
		assert.False(t, result.BusinessType.Accepted(), "message %q should not accept a business_type", msg)
	}
}

func TestExtractBusinessTypeFuzzyTypo(t *testing.T) {
	e := NewExtractor()
	result := e.Extract("tengo un reaturante", "")
	assert.True(t, result.BusinessType.Accepted())
	assert.Equal(t, "restaurante", result.BusinessType.Value)
}

func TestExtractName(t *testing.T) {
	e := NewExtractor()
	result := e.Extract("Hola, soy Diego y tengo una pregunta", "")
	assert.True(t, result.Name.Accepted())
	assert.Equal(t, "Diego", result.Name.Value)
}

func TestExtractNameFromEmailPrefix(t *testing.T) {
	e := NewExtractor()
	result := e.Extract("mi correo es juanperez@example.com", "")
	assert.True(t, result.Name.Accepted())
	assert.Equal(t, "juanperez", result.Name.Value)
}

func TestExtractNamePrefersExplicitIntroOverEmailPrefix(t *testing.T) {
	e := NewExtractor()
	result := e.Extract("Hola, soy Diego, mi correo es juanperez@example.com", "")
	assert.True(t, result.Name.Accepted())
	assert.Equal(t, "Diego", result.Name.Value)
}

func TestExtractBudgetExplicit(t *testing.T) {
	e := NewExtractor()
	result := e.Extract("puedo pagar $300 al mes", "")
	assert.True(t, result.Budget.Accepted())
}

func TestExtractBudgetRejectsTimeOfDay(t *testing.T) {
	e := NewExtractor()
	result := e.Extract("nos vemos a las 3:00", "")
	assert.False(t, result.Budget.Accepted())
}

func TestExtractBudgetConfirmation(t *testing.T) {
	e := NewExtractor()
	result := e.Extract("sí", "Perfecto, nuestro plan es de $300 al mes, ¿te funciona?")
	assert.True(t, result.Budget.Accepted())
	assert.Equal(t, "300+", result.Budget.Value)
}

func TestExtractEmail(t *testing.T) {
	e := NewExtractor()
	result := e.Extract("mi correo es diego@example.com", "")
	assert.True(t, result.Email.Accepted())
	assert.Equal(t, "diego@example.com", result.Email.Value)
}

func TestExtractGoalMinLength(t *testing.T) {
	e := NewExtractor()
	result := e.Extract("necesito más", "")
	assert.False(t, result.Goal.Accepted(), "short goal text should not meet the minimum length")

	result = e.Extract("necesito más clientes para mi restaurante", "")
	assert.True(t, result.Goal.Accepted())
}

func TestExtractPhone(t *testing.T) {
	e := NewExtractor()
	result := e.Extract("mi numero es 555-123-4567", "")
	assert.True(t, result.Phone.Accepted())
}
