package validation

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		ok    bool
	}{
		{"a@b.com", true},
		{"first.last+tag@example.co.uk", true},
		{"", false},
		{"plainaddress", false},
		{"a@b", false},
		{"a@.com", false},
		{"a@b.", false},
		{"Ana <a@b.com>", false},
		{strings.Repeat("a", 250) + "@b.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "email", verr.Field)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.com "))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword("12345"))
	assert.NoError(t, ValidatePassword("secret1"))
	assert.NoError(t, ValidatePassword("123456"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 73)))

	// The minimum counts characters, the maximum counts bytes.
	assert.Error(t, ValidatePassword("ééé"))
	assert.NoError(t, ValidatePassword("éééééé"))
	assert.NoError(t, ValidatePassword(strings.Repeat("é", 36)))
	err := ValidatePassword(strings.Repeat("é", 37))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "72 bytes")
}

func TestValidateName(t *testing.T) {
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName("A"))
	assert.NoError(t, ValidateName("Al"))
	assert.NoError(t, ValidateName("Zoë"))
	assert.Error(t, ValidateName(strings.Repeat("n", 51)))
}

func TestNormalizeName(t *testing.T) {
	decomposed := "Zoë"
	assert.Equal(t, "Zoë", NormalizeName("  "+decomposed+" "))
}

func TestValidateContact(t *testing.T) {
	assert.NoError(t, ValidateContact(""))
	assert.NoError(t, ValidateContact("11999999999"))
	assert.Error(t, ValidateContact("1199999999"))
	assert.Error(t, ValidateContact("1199999999a"))
	assert.Error(t, ValidateContact("+1199999999"))
}

func TestValidateAvatarRef(t *testing.T) {
	assert.NoError(t, ValidateAvatarRef("default.jpg"))
	assert.Error(t, ValidateAvatarRef(strings.Repeat("a", 256)))
}

func TestValidateProject(t *testing.T) {
	assert.Error(t, ValidateProjectName(""))
	assert.Error(t, ValidateProjectName("ab"))
	assert.NoError(t, ValidateProjectName("abc"))
	assert.Error(t, ValidateProjectName(strings.Repeat("p", 101)))

	assert.NoError(t, ValidateProjectDescription(""))
	assert.Error(t, ValidateProjectDescription(strings.Repeat("d", 2001)))

	for _, s := range []string{"Todo", "InProgress", "Done"} {
		assert.NoError(t, ValidateProjectStatus(s))
	}
	err := ValidateProjectStatus("Bogus")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "status", verr.Field)
	assert.Contains(t, verr.Message, "Todo, InProgress, Done")
}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	_, header, err := req.FormFile("avatar")
	require.NoError(t, err)
	return header
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestValidateFile(t *testing.T) {
	assert.NoError(t, ValidateFile(fileHeader(t, "me.png", pngMagic), ImageConstraints))

	err := ValidateFile(fileHeader(t, "me.txt", pngMagic), ImageConstraints)
	assert.ErrorContains(t, err, "invalid file extension")

	err = ValidateFile(fileHeader(t, "me.png", []byte("hello world")), ImageConstraints)
	assert.ErrorContains(t, err, "invalid file type")

	small := ImageConstraints
	small.MaxSize = 4
	err = ValidateFile(fileHeader(t, "me.png", pngMagic), small)
	assert.ErrorContains(t, err, "file too large")

	assert.Error(t, ValidateFile(fileHeader(t, "me.png", pngMagic)))
}
