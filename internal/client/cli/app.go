package cli

import (
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/config"
	"github.com/dmitrijs2005/storefront/internal/client/services"
)

type App struct {
	config       *config.Config
	api          client.Client
	authService  services.AuthService
	mediaService *services.MediaService
}

func NewApp(c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	apiClient := client.NewHTTPClient(c.ServerURL, c.Timeout)
	tokens := services.NewFileTokenStore(c.TokenFile)

	return &App{
		config:       c,
		api:          apiClient,
		authService:  services.NewAuthService(apiClient, tokens),
		mediaService: services.NewMediaService(apiClient, tokens, &http.Client{Timeout: c.Timeout * 6}),
	}, nil
}
