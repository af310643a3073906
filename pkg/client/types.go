package client

// AskRequest is the body of POST /ask.
type AskRequest struct {
	SelectedText string `json:"selected_text" validate:"required"`
	Question     string `json:"question" validate:"required"`
	Model        string `json:"model" validate:"required"`
	AuthToken    string `json:"auth_token,omitempty"`
}

// UploadDocument is one extracted document sent to POST /upload.
type UploadDocument struct {
	Name string `validate:"required"`
	Text string `validate:"required"`
}

// UploadResult is the per-file outcome reported by the backend. Error is set
// instead of the counts when the backend could not process the file.
type UploadResult struct {
	Message         string `json:"message,omitempty"`
	Filename        string `json:"filename"`
	DocumentID      int64  `json:"document_id,omitempty"`
	ChunksCount     int    `json:"chunks_count,omitempty"`
	EmbeddingsCount int    `json:"embeddings_count,omitempty"`
	Error           string `json:"error,omitempty"`
}

// HistoryItem is one past exchange of the signed-in user.
type HistoryItem struct {
	ID           int64  `json:"id"`
	Timestamp    string `json:"timestamp"`
	SelectedText string `json:"selected_text"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
}

// Document is an uploaded document known to the backend.
type Document struct {
	ID              int64  `json:"id"`
	Filename        string `json:"filename"`
	UploadTimestamp string `json:"upload_timestamp"`
	ChunksCount     int    `json:"chunks_count"`
}

// RatingRequest is the body of PUT /put_ratings.
type RatingRequest struct {
	ID      int64  `json:"id" validate:"gt=0"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment"`
}

// CorrectionRequest is the body of POST /submit_correction.
type CorrectionRequest struct {
	ChatID          int64  `json:"chat_id" validate:"gt=0"`
	CorrectedAnswer string `json:"corrected_answer" validate:"required"`
	Comment         string `json:"comment,omitempty"`
}

// KnowledgeItem is a curated question/answer pair.
type KnowledgeItem struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Source   string `json:"source,omitempty"`
}

// KnowledgeInsertRequest is the body of POST /knowledge_base.
type KnowledgeInsertRequest struct {
	Items []KnowledgeItem `json:"items" validate:"required,min=1,dive"`
}

// Credentials are sent to POST /register and POST /login.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// AuthResponse carries the session token issued by the backend.
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// StatusResponse is the generic acknowledgement most write endpoints return.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

// RatingRecord is one rated exchange in the admin view.
type RatingRecord struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Timestamp    string `json:"timestamp"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	Question     string `json:"question"`
	SelectedText string `json:"selected_text"`
	Answer       string `json:"answer,omitempty"`
}

// RatingStats aggregates every rating. Distribution is keyed by star value.
type RatingStats struct {
	TotalRatings  int            `json:"total_ratings"`
	AverageRating float64        `json:"average_rating"`
	Distribution  map[string]int `json:"distribution"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type ratingsResponse struct {
	Ratings []RatingRecord `json:"ratings"`
}
