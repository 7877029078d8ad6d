package version

// Requirement names a tor feature that is only available from some version on.
type Requirement string

const (
	TorrcDisableDebuggerAttachment Requirement = "TORRC_DISABLE_DEBUGGER_ATTACHMENT"
	TorrcControlSocket             Requirement = "TORRC_CONTROL_SOCKET"
	AuthSafeCookie                 Requirement = "AUTH_SAFECOOKIE"
)

var requirements = map[Requirement]*Version{
	TorrcDisableDebuggerAttachment: MustParse("0.2.3.9"),
	TorrcControlSocket:             MustParse("0.2.0.30"),
	AuthSafeCookie:                 MustParse("0.2.3.13"),
}

// Minimum returns the first tor version providing r.
func (r Requirement) Minimum() (*Version, bool) {
	v, ok := requirements[r]
	return v, ok
}

// MetBy reports whether v provides r. Unknown requirements are never met.
func (r Requirement) MetBy(v *Version) bool {
	minimum, ok := r.Minimum()
	if !ok || v == nil {
		return false
	}
	return v.AtLeast(minimum)
}
