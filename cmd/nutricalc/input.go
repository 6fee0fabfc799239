package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/larderly/server/internal/domain/nutrition"
)

// ReadIngredients parses one ingredient per line. A line is either
// "quantity|unit|name" or a bare name. Blank lines and lines starting with
// '#' are skipped.
func ReadIngredients(r io.Reader) ([]nutrition.IngredientRequest, error) {
	var out []nutrition.IngredientRequest

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		req, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseLine(line string) (nutrition.IngredientRequest, error) {
	fields := strings.Split(line, "|")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	var req nutrition.IngredientRequest
	switch len(fields) {
	case 1:
		req.Name = fields[0]
	case 3:
		req.Quantity, req.Unit, req.Name = fields[0], fields[1], fields[2]
	default:
		return req, fmt.Errorf("expected quantity|unit|name, got %d fields", len(fields))
	}

	if req.Name == "" {
		return req, fmt.Errorf("missing ingredient name")
	}
	return req, nil
}
