package features

// Vector is the ordered set of clinical measurements required by the risk
// prediction service. Field order is part of the wire contract.
type Vector struct {
	Pregnancies              int     `json:"Pregnancies"`
	Glucose                  int     `json:"Glucose"`
	BloodPressure            int     `json:"BloodPressure"`
	SkinThickness            int     `json:"SkinThickness"`
	Insulin                  int     `json:"Insulin"`
	BMI                      float64 `json:"BMI"`
	DiabetesPedigreeFunction float64 `json:"DiabetesPedigreeFunction"`
	Age                      int     `json:"Age"`
}

// Values returns the eight features in canonical order, as sent to the
// prediction endpoint.
func (v Vector) Values() []float64 {
	return []float64{
		float64(v.Pregnancies),
		float64(v.Glucose),
		float64(v.BloodPressure),
		float64(v.SkinThickness),
		float64(v.Insulin),
		v.BMI,
		v.DiabetesPedigreeFunction,
		float64(v.Age),
	}
}
