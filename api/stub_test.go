package api

import (
	"context"

	"github.com/use-agent/shelfscan/models"
)

type stubService struct{}

func (stubService) Search(context.Context, string) ([]models.Product, error) {
	return []models.Product{}, nil
}
func (stubService) Site() string       { return "amazon.com" }
func (stubService) EngineName() string { return "stub" }
