package features

import (
	"fmt"
	"regexp"
	"strconv"
)

// ReportSchema is the default Schema: a single rigid, case-insensitive pattern
// requiring the eight labeled fields consecutively in canonical order, with
// arbitrary whitespace (including newlines) between tokens. Surrounding text
// is ignored. This is a brittle format contract with the synthetic-style lab
// report, kept deliberately strict rather than attempting fuzzy extraction.
type ReportSchema struct{}

var reportPattern = regexp.MustCompile(`(?i)Pregnancies:\s*(\d+)\s*Glucose:\s*(\d+)\s*BloodPressure:\s*(\d+)\s*SkinThickness:\s*(\d+)\s*Insulin:\s*(\d+)\s*BMI:\s*([\d.]+)\s*DiabetesPedigreeFunction:\s*([\d.]+)\s*Age:\s*(\d+)`)

// Name identifies the schema.
func (ReportSchema) Name() string { return "diabetes-report/v1" }

// Parse matches the report pattern and converts the captured groups.
func (ReportSchema) Parse(text string) (Vector, error) {
	m := reportPattern.FindStringSubmatch(text)
	if m == nil {
		return Vector{}, ErrNoMatch
	}

	var (
		v   Vector
		err error
	)
	if v.Pregnancies, err = parseInt("Pregnancies", m[1]); err != nil {
		return Vector{}, err
	}
	if v.Glucose, err = parseInt("Glucose", m[2]); err != nil {
		return Vector{}, err
	}
	if v.BloodPressure, err = parseInt("BloodPressure", m[3]); err != nil {
		return Vector{}, err
	}
	if v.SkinThickness, err = parseInt("SkinThickness", m[4]); err != nil {
		return Vector{}, err
	}
	if v.Insulin, err = parseInt("Insulin", m[5]); err != nil {
		return Vector{}, err
	}
	if v.BMI, err = parseFloat("BMI", m[6]); err != nil {
		return Vector{}, err
	}
	if v.DiabetesPedigreeFunction, err = parseFloat("DiabetesPedigreeFunction", m[7]); err != nil {
		return Vector{}, err
	}
	if v.Age, err = parseInt("Age", m[8]); err != nil {
		return Vector{}, err
	}
	return v, nil
}

func parseInt(field, raw string) (int, error) {
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrNoMatch, field, err)
	}
	return val, nil
}

func parseFloat(field, raw string) (float64, error) {
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrNoMatch, field, err)
	}
	return val, nil
}

var _ Schema = ReportSchema{}
