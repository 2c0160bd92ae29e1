package ml

// Classifier is a pre-trained binary model. Predict returns the class label
// and the probability of the positive class.
type Classifier interface {
	FeatureNames() []string
	Predict(features []float64) (int, float64, error)
}

// Label is the subscription outcome shown to the user.
type Label int

const (
	NotSubscribed Label = iota
	Subscribed
)

func (l Label) String() string {
	if l == Subscribed {
		return "subscribed"
	}
	return "not_subscribed"
}

// Prediction is a classified row.
type Prediction struct {
	Label       Label   `json:"label"`
	Probability float64 `json:"probability"`
}
