package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Jl. Merdeka No. 5", SanitizeString("  Jl.   Merdeka\tNo.\n5 ", 0))
	assert.Equal(t, "Dewi", SanitizeString("Dewi\x00", 0))
	assert.Equal(t, "Sérè", SanitizeString("Sérèna", 4))
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders?page=3&size=500&bad=x", nil)

	page, err := ParseQueryInt(r, "page", 1, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	missing, err := ParseQueryInt(r, "limit", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, missing)

	_, err = ParseQueryInt(r, "size", 20, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseQueryInt(r, "bad", 20, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryBool(t *testing.T) {
	r := httptest.NewRequest("GET", "/notifications?unread=true&bad=maybe", nil)

	unread, err := ParseQueryBool(r, "unread", false)
	require.NoError(t, err)
	assert.True(t, unread)

	fallback, err := ParseQueryBool(r, "archived", true)
	require.NoError(t, err)
	assert.True(t, fallback)

	_, err = ParseQueryBool(r, "bad", false)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

type lineInput struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type orderForm struct {
	Email string      `json:"email" validate:"required,email"`
	Items []lineInput `json:"items" validate:"required,min=1,dive"`
}

func decodeForm(t *testing.T, body string, strict bool) (orderForm, error) {
	t.Helper()
	var form orderForm
	r := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	w := httptest.NewRecorder()
	if strict {
		return form, DecodeJSONBody(w, r, &form)
	}
	return form, DecodeExternalJSONBody(w, r, &form)
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	out, ok := typed.Details().(map[string]string)
	require.True(t, ok, "details %T", typed.Details())
	return out
}

func TestDecodeJSONBodyReportsNestedFieldPaths(t *testing.T) {
	_, err := decodeForm(t, `{"email":"dewi@example.com","items":[{"productId":"not-an-id","quantity":0}]}`, true)
	require.Error(t, err)
	got := details(t, err)
	assert.Equal(t, "must be a valid id", got["items[0].productId"])
	assert.Equal(t, "must be greater than 0", got["items[0].quantity"])
}

func TestDecodeJSONBodyStrictness(t *testing.T) {
	body := `{"email":"dewi@example.com","items":[{"productId":"7f1b2c0e-4b7a-4d0e-9d43-2f6f0c3f1a11","quantity":1}],"coupon":"X"}`

	_, err := decodeForm(t, body, true)
	require.Error(t, err)
	assert.Equal(t, "is not allowed", details(t, err)["coupon"])

	form, err := decodeForm(t, body, false)
	require.NoError(t, err)
	assert.Equal(t, 1, form.Items[0].Quantity)
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	_, err := decodeForm(t, ``, true)
	assert.Equal(t, "request body is required", pkgerrors.As(err).Message())

	_, err = decodeForm(t, `{"email":"a@b.co","items":[]} {}`, true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = decodeForm(t, `{"email":42}`, true)
	assert.Equal(t, "must be string", details(t, err)["email"])

	huge := `{"email":"` + strings.Repeat("a", int(MaxBodyBytes)) + `"}`
	_, err = decodeForm(t, huge, true)
	assert.Contains(t, pkgerrors.As(err).Message(), "exceeds")
}
