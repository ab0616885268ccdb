package handlers

import "github.com/gin-gonic/gin"

// successBody is the uniform success envelope of the SkillScape API.
type successBody struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
}

// errorBody is the uniform error envelope. Internal detail never leaks here.
type errorBody struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, successBody{Success: true, StatusCode: status, Data: data, Message: message})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, errorBody{Success: false, StatusCode: status, Message: message})
}
