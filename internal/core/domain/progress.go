package domain

// Stage names one step of the retrieval pipeline as reported to streaming
// clients. Stages run strictly forward; error is terminal and reachable
// from any of them.
type Stage string

const (
	StageDetect    Stage = "detect"
	StageTranslate Stage = "translate"
	StageExpand    Stage = "expand"
	StageEmbedding Stage = "embedding"
	StageSearch    Stage = "search"
	StageRetrieve  Stage = "retrieve"
	StageContext   Stage = "context"
	StageGenerate  Stage = "generate"
	StageComplete  Stage = "complete"
)

// ProgressEvent is one element of the streamed event sequence: a stage
// marker, a translation notice, or exactly one terminal variant (final
// result or error). The interface is sealed so the set of wire shapes
// stays closed.
type ProgressEvent interface {
	progressEvent()
}

// StageStarted announces that a stage is about to run.
type StageStarted struct {
	Step Stage `json:"step"`
}

// TranslationNotice carries the original or translated question text during
// the translate stage. Exactly one of the two fields is set per event.
type TranslationNotice struct {
	Step              Stage  `json:"step"`
	TranslationInfo   string `json:"translation_info,omitempty"`
	TranslationResult string `json:"translation_result,omitempty"`
}

// SearchCompleted is the terminal event of the search flow.
type SearchCompleted struct {
	Complete bool `json:"complete"`
	SearchResult
}

// AnswerCompleted is the terminal event of the question-answering flow.
type AnswerCompleted struct {
	Complete bool `json:"complete"`
	AnswerResult
}

// PipelineFailed is the terminal error event.
type PipelineFailed struct {
	Error string `json:"error"`
}

func (StageStarted) progressEvent()      {}
func (TranslationNotice) progressEvent() {}
func (SearchCompleted) progressEvent()   {}
func (AnswerCompleted) progressEvent()   {}
func (PipelineFailed) progressEvent()    {}

// ProgressSink consumes pipeline events in emission order. Implementations
// must tolerate being called from the request goroutine only; the pipeline
// never emits concurrently.
type ProgressSink func(ProgressEvent)

// DiscardProgress is the sink used by the non-streaming endpoints.
func DiscardProgress(ProgressEvent) {}
