package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/mf-tracker/middlewares"
	"github.com/yeremiapane/mf-tracker/models"
	"github.com/yeremiapane/mf-tracker/utils"
)

const usersListLimit = 200

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// Register creates a user. The client sends an already hashed password in
// passwordHash; it is stored as a bcrypt digest. isAdmin is honored only
// when the caller presents an admin token.
func (uc *UserController) Register(c *gin.Context) {
	var req struct {
		FirstName    string `json:"firstName"`
		LastName     string `json:"lastName"`
		Email        string `json:"email"`
		PasswordHash string `json:"passwordHash"`
		Password     string `json:"password"`
		IsAdmin      bool   `json:"isAdmin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("missing email"))
		return
	}
	if req.IsAdmin && !callerIsAdmin(c) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var count int64
	if err := uc.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if count > 0 {
		utils.RespondError(c, http.StatusConflict, errors.New("email already registered"))
		return
	}

	user := models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		IsAdmin:   req.IsAdmin,
	}
	if secret := firstNonEmpty(req.PasswordHash, req.Password); secret != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		user.PasswordHash = string(hashed)
	}

	if err := uc.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.WithField("email", user.Email).Info("user registered")
	utils.RespondJSON(c, http.StatusOK, gin.H{"user": user})
}

// Login verifies the credentials and returns the user with a JWT.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email        string `json:"email"`
		PasswordHash string `json:"passwordHash"`
		Password     string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	secret := firstNonEmpty(input.PasswordHash, input.Password)
	if email == "" || secret == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("missing credentials"))
		return
	}

	var user models.User
	if err := uc.DB.Where("email = ?", email).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)) != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.WithField("email", user.Email).Info("login successful")
	utils.RespondJSON(c, http.StatusOK, gin.H{"user": user, "token": token})
}

// Logout revokes the bearer token of the request.
func (uc *UserController) Logout(c *gin.Context) {
	if token := c.GetString(middlewares.CtxToken); token != "" {
		utils.BlacklistToken(token)
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{})
}

func (uc *UserController) GetProfile(c *gin.Context) {
	userID, ok := c.Get(middlewares.CtxUserID)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"user": user})
}

// GetAllUsers is admin only; password digests never leave the server.
func (uc *UserController) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := uc.DB.Omit("password_hash").Order("created_at DESC").Limit(usersListLimit).Find(&users).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"users": users})
}

func callerIsAdmin(c *gin.Context) bool {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	claims, err := utils.ValidateToken(strings.TrimPrefix(header, "Bearer "))
	return err == nil && claims.IsAdmin
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var ErrNoPermission = &CustomError{"you do not have permission"}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}
