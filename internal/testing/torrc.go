package testing

import (
	"bytes"
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/crypto/openpgp/s2k"

	"github.com/saturn597/stem/internal/target"
)

const torrcTemplate = `# {{ .Target }} instance {{ .ID | trunc 8 }}
DataDirectory {{ .DataDirectory }}
SocksPort {{ .SocksPort }}
DownloadExtraInfo 1
{{- if has "PORT" .Options }}
ControlPort {{ .ControlPort }}
{{- end }}
{{- if has "COOKIE" .Options }}
CookieAuthentication 1
{{- end }}
{{- if has "PASSWORD" .Options }}
HashedControlPassword {{ .HashedPassword }}
{{- end }}
{{- if has "SOCKET" .Options }}
ControlSocket {{ .ControlSocket }}
{{- end }}
{{- if has "PTRACE" .Options }}
DisableDebuggerAttachment 0
{{- end }}
`

var torrcTmpl = template.Must(template.New("torrc").Funcs(sprig.TxtFuncMap()).Parse(torrcTemplate))

// torrcData is what the torrc template is rendered with.
type torrcData struct {
	ID             string
	Target         target.Target
	DataDirectory  string
	SocksPort      int
	ControlPort    int
	ControlSocket  string
	HashedPassword string
	Options        []string
}

func newTorrcData(inst *TorInstance, dataDirectory string, socksPort int) (torrcData, error) {
	data := torrcData{
		ID:            inst.ID,
		Target:        inst.Target,
		DataDirectory: dataDirectory,
		SocksPort:     socksPort,
		ControlPort:   inst.ControlPort,
		ControlSocket: inst.ControlSocket,
	}
	for _, opt := range inst.Options {
		data.Options = append(data.Options, string(opt))
	}
	if inst.ControlPassword != "" {
		hashed, err := HashControlPassword(inst.ControlPassword)
		if err != nil {
			return data, err
		}
		data.HashedPassword = hashed
	}
	return data, nil
}

func renderTorrc(data torrcData) (string, error) {
	var buf bytes.Buffer
	if err := torrcTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render torrc: %w", err)
	}
	return buf.String(), nil
}

// s2kIndicator selects 65536 bytes of hashing, what `tor --hash-password` uses.
const s2kIndicator = 0x60

// HashControlPassword produces a HashedControlPassword value for password
// with a random salt.
func HashControlPassword(password string) (string, error) {
	salt := make([]byte, 8)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hashControlPasswordWithSalt(password, salt), nil
}

// hashControlPasswordWithSalt runs the iterated and salted OpenPGP S2K with
// SHA1, the way tor's HashedControlPassword is derived.
func hashControlPasswordWithSalt(password string, salt []byte) string {
	const expBias = 6
	count := (16 + (s2kIndicator & 15)) << ((s2kIndicator >> 4) + expBias)

	digest := make([]byte, sha1.Size)
	s2k.Iterated(digest, sha1.New(), []byte(password), salt, count)

	encoded := hex.EncodeToString(salt) + fmt.Sprintf("%02x", s2kIndicator) + hex.EncodeToString(digest)
	return "16:" + strings.ToUpper(encoded)
}
