package cloudinary

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDeliveryURLStripsVersionAndExtension(t *testing.T) {
	publicID, resourceType, err := parseDeliveryURL(
		"https://res.cloudinary.com/demo/image/upload/v1712345678/atrium/submissions/essay-42.pdf")
	require.NoError(t, err)
	require.Equal(t, "atrium/submissions/essay-42", publicID)
	require.Equal(t, "image", resourceType)
}

func TestParseDeliveryURLKeepsRawExtension(t *testing.T) {
	publicID, resourceType, err := parseDeliveryURL(
		"https://res.cloudinary.com/demo/raw/upload/v1712345678/atrium/submissions/notes-42.docx")
	require.NoError(t, err)
	require.Equal(t, "atrium/submissions/notes-42.docx", publicID)
	require.Equal(t, "raw", resourceType)
}

func TestParseDeliveryURLRejectsUnrecognizedShape(t *testing.T) {
	_, _, err := parseDeliveryURL("https://files.example.com/essay.pdf")
	require.Error(t, err)
}
