package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img              string `json:"img"`               // base64 encoded image
	Model            string `json:"model_name"`        // "Facenet" yields 128-d embeddings
	Detector         string `json:"detector_backend"`  // "retinaface", "opencv", etc
	EnforceDetection bool   `json:"enforce_detection"` // false: no-face frames come back with confidence 0
	MaxFaces         int    `json:"max_faces,omitempty"`
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence float64    `json:"face_confidence"`
}

type FacialArea struct {
	X        int   `json:"x"`
	Y        int   `json:"y"`
	W        int   `json:"w"`
	H        int   `json:"h"`
	LeftEye  []int `json:"left_eye,omitempty"`
	RightEye []int `json:"right_eye,omitempty"`
}
