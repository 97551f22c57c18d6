package azure

type analyzeResult struct {
	ReadResult readResult `json:"readResult"`
}

type readResult struct {
	Blocks []block `json:"blocks"`
}

type block struct {
	Lines []line `json:"lines"`
}

type line struct {
	Text string `json:"text"`
}

type analyzeError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
