package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"linkgate/internal/models"
	"linkgate/pkg/utils"
)

var (
	ErrInvalidURL  = errors.New("url must start with http:// or https://")
	ErrInvalidCode = errors.New("custom code must be 4-10 letters or digits")
	ErrCodeTaken   = errors.New("custom code already taken")
)

const maxCodeAttempts = 10

type ShortenDTO struct {
	OriginalURL string
	CustomCode  string
	Title       string
	Password    string
	ExpiryHours *int
	MaxClicks   *int64
	IPAddress   string // For Audit Log
}

type LinkWriter interface {
	CodeExists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, u *models.URL) error
}

type ShortenerService struct {
	links         LinkWriter
	auditService  *AuditService
	codeLength    int
	codeGenerator func(int) string
}

func NewShortenerService(links LinkWriter, auditService *AuditService, codeLength int) *ShortenerService {
	if codeLength <= 0 {
		codeLength = 6
	}
	return &ShortenerService{
		links:         links,
		auditService:  auditService,
		codeLength:    codeLength,
		codeGenerator: utils.GenerateShortCode,
	}
}

func (s *ShortenerService) CreateShortURL(ctx context.Context, dto ShortenDTO) (*models.URL, error) {
	original := strings.TrimSpace(dto.OriginalURL)
	if !strings.HasPrefix(original, "http://") && !strings.HasPrefix(original, "https://") {
		return nil, ErrInvalidURL
	}

	shortCode, err := s.pickCode(ctx, strings.TrimSpace(dto.CustomCode))
	if err != nil {
		return nil, err
	}

	newURL := models.URL{
		ShortCode:   shortCode,
		OriginalURL: original,
		Title:       dto.Title,
		IsActive:    true,
		MaxClicks:   dto.MaxClicks,
	}
	if err := newURL.SetPassword(dto.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if dto.ExpiryHours != nil && *dto.ExpiryHours > 0 {
		t := time.Now().Add(time.Duration(*dto.ExpiryHours) * time.Hour)
		newURL.ExpiresAt = &t
	}

	if err := s.links.Create(ctx, &newURL); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	if s.auditService != nil {
		s.auditService.LogAction(ActionCreateLink, newURL.ShortCode, map[string]interface{}{
			"original_url": newURL.OriginalURL,
			"protected":    newURL.HasPassword(),
		}, dto.IPAddress)
	}

	return &newURL, nil
}

func (s *ShortenerService) pickCode(ctx context.Context, custom string) (string, error) {
	if custom != "" {
		if !utils.ValidCustomCode(custom) {
			return "", ErrInvalidCode
		}
		taken, err := s.links.CodeExists(ctx, custom)
		if err != nil {
			return "", err
		}
		if taken {
			return "", ErrCodeTaken
		}
		return custom, nil
	}

	for i := 0; i < maxCodeAttempts; i++ {
		code := s.codeGenerator(s.codeLength)
		taken, err := s.links.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free short code after %d attempts", maxCodeAttempts)
}
