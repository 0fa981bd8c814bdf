package riskrecords

type statusUpdateRequest struct {
	Status string `json:"status"`
}

type recordListResponse struct {
	Records []RiskRecord `json:"records"`
}

type adminListResponse struct {
	Records []AdminRecord `json:"records"`
}
