package controllers

import (
	"net/http"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// ClientResponse never includes the secret
type ClientResponse struct {
	ClientID  string    `json:"client_id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Scopes    string    `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
}

// IssuedClientResponse returns the plain secret once, at creation
type IssuedClientResponse struct {
	ClientResponse
	ClientSecret string `json:"client_secret"`
}

type ClientController struct {
	clientService services.ClientService
}

func NewClientController(clientService services.ClientService) *ClientController {
	return &ClientController{clientService: clientService}
}

func newClientResponse(client models.OAuthClient) ClientResponse {
	return ClientResponse{
		ClientID:  client.ID,
		Name:      client.Name,
		Domain:    client.Domain,
		Scopes:    client.Scopes,
		CreatedAt: client.CreatedAt,
	}
}

// CreateClient godoc
// @Summary Create OAuth2 client
// @Description Register a new API consumer for the password grant
// @Tags OAuth2 Clients
// @Accept json
// @Produce json
// @Param client body services.CreateClientInput true "Client details"
// @Success 201 {object} IssuedClientResponse
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/clients [post]
func (cc *ClientController) CreateClient(c *gin.Context) {
	var input services.CreateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	ownerID, _ := middleware.CurrentUserID(c)

	issued, err := cc.clientService.CreateClient(c.Request.Context(), ownerID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, IssuedClientResponse{
		ClientResponse: newClientResponse(issued.Client),
		ClientSecret:   issued.Secret,
	})
}

// ListClients godoc
// @Summary List OAuth2 clients
// @Tags OAuth2 Clients
// @Produce json
// @Success 200 {array} ClientResponse
// @Security BearerAuth
// @Router /api/clients [get]
func (cc *ClientController) ListClients(c *gin.Context) {
	clients, err := cc.clientService.ListClients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	results := make([]ClientResponse, 0, len(clients))
	for _, client := range clients {
		results = append(results, newClientResponse(client))
	}
	c.JSON(http.StatusOK, results)
}

// DeleteClient godoc
// @Summary Delete OAuth2 client
// @Tags OAuth2 Clients
// @Param id path string true "Client ID"
// @Success 204 "Client deleted successfully"
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/clients/{id} [delete]
func (cc *ClientController) DeleteClient(c *gin.Context) {
	if err := cc.clientService.DeleteClient(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
