package config

import (
	"fmt"
	"path/filepath"
	"regexp"

	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/zerr"
)

var validCellIDRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// LoadNotebook reads the notebook at path and validates its cells.
func (l *Loader) LoadNotebook(path string) (*domain.Notebook, error) {
	var file Notebookfile
	if err := readAndUnmarshalYAML(path, &file); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	l.warnVersion(path, file.Version)

	cells, err := buildCells(file.Cells)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrNotebookInvalid.Error()), "path", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	if len(cells) == 0 {
		l.Logger.Warn(fmt.Sprintf("notebook %s has no cells", path))
	}

	return &domain.Notebook{Path: absPath, Cells: cells}, nil
}

func buildCells(dtos []CellDTO) ([]domain.Cell, error) {
	seen := make(map[string]struct{}, len(dtos))
	cells := make([]domain.Cell, 0, len(dtos))

	for i, dto := range dtos {
		if !validCellIDRegex.MatchString(dto.ID) {
			idErr := zerr.With(domain.ErrInvalidCellID, "cell_id", dto.ID)
			return nil, zerr.With(idErr, "index", i)
		}
		if _, dup := seen[dto.ID]; dup {
			return nil, zerr.With(domain.ErrDuplicateCellID, "cell_id", dto.ID)
		}
		seen[dto.ID] = struct{}{}

		cellType, err := parseCellType(dto.Type)
		if err != nil {
			return nil, zerr.With(err, "cell_id", dto.ID)
		}

		rt, err := domain.ParseRuntime(dto.Runtime)
		if err != nil {
			return nil, zerr.With(err, "cell_id", dto.ID)
		}

		cells = append(cells, domain.Cell{
			ID:      dto.ID,
			Type:    cellType,
			Runtime: rt,
			Content: dto.Content,
		})
	}

	return cells, nil
}

func parseCellType(s string) (domain.CellType, error) {
	switch domain.CellType(s) {
	case domain.CellCode:
		return domain.CellCode, nil
	case domain.CellText:
		return domain.CellText, nil
	default:
		return "", zerr.With(domain.ErrInvalidCellType, "type", s)
	}
}
