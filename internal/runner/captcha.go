package runner

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// insecureClient fetches CAPTCHA images from portals with self-signed
// certificates.
var insecureClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	},
}

// captchaImage decodes the image bytes from an img src, which is either a
// data URI or a plain URL.
func captchaImage(src string) ([]byte, error) {
	if strings.Contains(src, "data:image") {
		parts := strings.SplitN(src, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed data URI")
		}
		image, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to decode data URI: %w", err)
		}
		return image, nil
	}

	resp, err := insecureClient.Get(src)
	if err != nil {
		return nil, fmt.Errorf("failed to download CAPTCHA image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CAPTCHA image request returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
