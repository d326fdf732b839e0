package domain

// ClientInfo is never persisted.
type ClientInfo struct {
	FullName string `json:"full_name"`
	Location string `json:"location"`
}

// ClientInfoPatch carries a partial update; nil fields are left untouched.
type ClientInfoPatch struct {
	FullName *string `json:"full_name,omitempty"`
	Location *string `json:"location,omitempty"`
}

// Complete reports whether both fields are non-empty. Whitespace counts as content.
func (c ClientInfo) Complete() bool {
	return c.FullName != "" && c.Location != ""
}

func (c ClientInfo) Merge(patch ClientInfoPatch) ClientInfo {
	if patch.FullName != nil {
		c.FullName = *patch.FullName
	}
	if patch.Location != nil {
		c.Location = *patch.Location
	}
	return c
}
