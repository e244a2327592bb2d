package tui

import (
	"github.com/tjdeveng/KeepTower-sub013/models"
)

type stepMsg struct {
	progress models.StepProgress
}

type stepsDoneMsg struct{}

type creationDoneMsg struct {
	result *models.CreationResult
	err    error
}
