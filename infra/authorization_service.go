package infra

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scalade/scalade-api/config"
)

// AuthorizationService is the external identity collaborator. Account and
// session state live there; this service only asks it to validate access
// tokens.
type AuthorizationService struct {
	AuthorizationServiceURL string
	PrivateKey              string
}

func InitAuthorizationService(config *config.EnvConfig) *AuthorizationService {
	url := config.ExternalService.AuthorizationServiceURL
	if url == "" {
		panic("Authorization service URL is not configured")
	}

	return &AuthorizationService{
		AuthorizationServiceURL: url,
		PrivateKey:              config.PrivateKey,
	}
}

func (s *AuthorizationService) CheckAccessToken(token string) error {
	url := fmt.Sprintf("%s/api/v1/authorization/token/validate", s.AuthorizationServiceURL)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Private-Key", s.PrivateKey)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("invalid token: %s", string(raw))
	}

	return nil
}
