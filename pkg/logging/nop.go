package logging

// nop drops every message. Used where a logger is optional.
type nop struct{}

// Nop returns a logger that discards everything.
func Nop() Interface { return nop{} }

func (n nop) WithField(string, interface{}) Interface { return n }
func (n nop) WithError(error) Interface               { return n }
func (nop) Debug(string)                              {}
func (nop) Info(string)                               {}
func (nop) Warn(string)                               {}
func (nop) Error(string)                              {}
func (nop) Fatal(string)                              {}
func (nop) Debugf(string, ...interface{})             {}
func (nop) Infof(string, ...interface{})              {}
func (nop) Warnf(string, ...interface{})              {}
func (nop) Errorf(string, ...interface{})             {}
func (nop) Fatalf(string, ...interface{})             {}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l Interface) Interface {
	if l == nil {
		return Nop()
	}
	return l
}
