package helper

import (
	"errors"
	"os"
	"time"

	"ertib_delivery/constants"
	"ertib_delivery/database"
	"ertib_delivery/model"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var JwtSecret = []byte(os.Getenv("JWT_SECRET"))

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func GenerateAccessToken(tokenClaim model.TokenClaim) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["userId"] = tokenClaim.UserId
	claims["phone"] = tokenClaim.Phone
	claims["name"] = tokenClaim.Name
	claims["role"] = tokenClaim.Role
	claims["exp"] = time.Now().Add(time.Hour * 24 * 7).Unix()

	t, err := token.SignedString(JwtSecret)
	return t, err
}

func ParseToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JwtSecret, nil
	})
}

// GetInfoUserFromToken đọc claim đã được middleware gắn vào Locals
func GetInfoUserFromToken(c *fiber.Ctx) (model.TokenClaim, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return model.TokenClaim{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.TokenClaim{}, false
	}

	claim := model.TokenClaim{}
	if v, ok := claims["userId"].(float64); ok {
		claim.UserId = uint(v)
	}
	if v, ok := claims["phone"].(string); ok {
		claim.Phone = v
	}
	if v, ok := claims["name"].(string); ok {
		claim.Name = v
	}
	if v, ok := claims["role"].(string); ok {
		claim.Role = v
	}

	isAdmin := claim.Role == constants.ROLE_ADMIN
	return claim, isAdmin
}

func GetUserByPhone(phone string) (*model.User, error) {
	var user model.User
	if err := database.DB.Where("phone = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
