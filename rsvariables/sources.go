package rsvariables

// Sources describes the variable sources for a deployment. Plain files are
// loaded in order, with later files overwriting earlier ones. The sensitive
// file, if any, is loaded last, so sensitive values overwrite plain ones.
type Sources struct {
	// Files holds the paths of plain variables files.
	Files []string

	// SensitiveFile holds the path of an encrypted variables file.
	SensitiveFile string

	// Password and Salt decrypt a password-sealed sensitive file. They
	// must be supplied together.
	Password string
	Salt     string

	// IdentityFile holds the path of an age identity file that decrypts
	// the sensitive file. It is mutually exclusive with Password and Salt.
	IdentityFile string
}

// Validate returns a non-nil error if the sources are configured
// incorrectly. Configuration mistakes are reported as ConfigError values.
func (s Sources) Validate() error {
	hasPassword := s.Password != ""
	hasSalt := s.Salt != ""
	hasIdentity := s.IdentityFile != ""

	if hasPassword != hasSalt {
		if hasPassword {
			return ConfigError{Reason: "a password was supplied without a salt"}
		}
		return ConfigError{Reason: "a salt was supplied without a password"}
	}
	if hasPassword && hasIdentity {
		return ConfigError{Reason: "a password and an identity file were both supplied"}
	}

	hasSecret := hasPassword || hasIdentity
	if s.SensitiveFile != "" && !hasSecret {
		return ConfigError{Reason: "a sensitive variables file was supplied without a password and salt or an identity file"}
	}
	if s.SensitiveFile == "" && hasSecret {
		return ConfigError{Reason: "decryption secrets were supplied without a sensitive variables file"}
	}

	return nil
}

// Load validates the sources, then loads them into a new variable store.
func Load(sources Sources) (*Store, error) {
	if err := sources.Validate(); err != nil {
		return nil, err
	}

	store := NewStore()
	for _, path := range sources.Files {
		if err := LoadFile(store, path); err != nil {
			return nil, err
		}
	}

	if sources.SensitiveFile != "" {
		var err error
		if sources.IdentityFile != "" {
			err = LoadSensitiveFileAge(store, sources.SensitiveFile, sources.IdentityFile)
		} else {
			err = LoadSensitiveFile(store, sources.SensitiveFile, sources.Password, sources.Salt)
		}
		if err != nil {
			return nil, err
		}
	}

	return store, nil
}
