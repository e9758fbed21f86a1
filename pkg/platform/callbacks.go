package platform

// Callbacks are the host functions bound to a view instance when it is
// instantiated. Each slot callback receives the slot value after every
// set and once when the instance is bound. Object and Array values arrive
// as JSON text. OnEvent receives named events emitted by the view.
//
// Nil members are skipped. The set is copied at instantiation and never
// changes for the life of the instance.
type Callbacks struct {
	OnInteger func(value int64)
	OnFloat   func(value float64)
	OnBool    func(value bool)
	OnString  func(value string)
	OnObject  func(json string)
	OnArray   func(json string)
	OnEvent   func(key, value string)
}
