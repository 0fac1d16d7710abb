package marketdata

// chartResponse mirrors the subset of the Yahoo chart API payload we consume.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  interface{}   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}
