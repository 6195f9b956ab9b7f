package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/fanguan/pos-app/utils"
)

// AuthController issues operator session tokens. There is a single
// shared operator credential; destructive endpoints check the token.
type AuthController struct {
	passwordHash []byte
}

func NewAuthController(operatorPassword string) (*AuthController, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(operatorPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &AuthController{passwordHash: hash}, nil
}

// Login -> JWT on the right password.
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword(ac.passwordHash, []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken("operator")
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Operator logged in from %s", c.ClientIP())
	utils.RespondJSON(c, http.StatusOK, "Login success", gin.H{"token": token})
}
