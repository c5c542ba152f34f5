// Package ticketqr encodes ticket verification links as QR codes.
package ticketqr

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/darkorder/ticketing-api/internal/domain"
)

const imageSize = 256

type Code struct {
	VerifyURL string
	PNG       []byte
}

func (c Code) Base64() string {
	return base64.StdEncoding.EncodeToString(c.PNG)
}

type Generator struct {
	publicURL string
}

// NewGenerator takes the public base URL of the deployment, e.g.
// "https://tickets.example.com". A bare host gets https:// prepended.
func NewGenerator(publicURL string) *Generator {
	publicURL = strings.TrimRight(publicURL, "/")
	if publicURL != "" && !strings.HasPrefix(publicURL, "http://") && !strings.HasPrefix(publicURL, "https://") {
		publicURL = "https://" + publicURL
	}

	return &Generator{
		publicURL: publicURL,
	}
}

func (g *Generator) VerifyURL(ticketID string) string {
	return g.publicURL + domain.VerifyPath + ticketID
}

func (g *Generator) Generate(ticketID string) (Code, error) {
	url := g.VerifyURL(ticketID)

	png, err := qrcode.Encode(url, qrcode.Medium, imageSize)
	if err != nil {
		return Code{}, fmt.Errorf("qrcode.Encode -> %w", err)
	}

	return Code{
		VerifyURL: url,
		PNG:       png,
	}, nil
}
