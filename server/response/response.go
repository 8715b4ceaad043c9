package response

import (
	"log"
	"net/http"
	"time"

	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/gin-gonic/gin"
)

// JSON writes the standard response envelope.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	errMessage := ""
	if err != nil {
		errMessage = err.Error()
	}
	responsedata := gin.H{
		"message":   message,
		"data":      data,
		"errors":    errMessage,
		"status":    http.StatusText(status),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	c.JSON(status, responsedata)
}

// HandleErrors picks the status from the error chain and writes it.
func HandleErrors(c *gin.Context, err error) {
	status := apiErrors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		response := err
		if status == http.StatusInternalServerError {
			response = apiErrors.ErrInternalServerError
		}
		JSON(c, "", status, nil, response)
		return
	}
	JSON(c, "", status, nil, err)
}
