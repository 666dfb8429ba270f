package models

const (
	KindProfile       = 0
	KindContacts      = 3
	KindDeletion      = 5
	KindRepost        = 6
	KindGenericRepost = 16
)

const (
	MaxUint16 = 65535
	MaxUint32 = 4294967295
)

// KindClass record class derived from kind
type KindClass int

const (
	ClassPlain KindClass = iota
	ClassReplaceable
	ClassParameterized
	ClassEphemeral
	ClassRepost
)

func (c KindClass) String() string {
	switch c {
	case ClassReplaceable:
		return "replaceable"
	case ClassParameterized:
		return "parameterized-replaceable"
	case ClassEphemeral:
		return "ephemeral"
	case ClassRepost:
		return "repost"
	}

	return "plain"
}

// IsReplaceableKind one live value per (kind, author)
func IsReplaceableKind(kind int) bool {
	return kind == KindProfile || kind == KindContacts || (kind >= 10000 && kind < 20000)
}

// IsParamReplaceableKind one live value per (kind, author, d)
func IsParamReplaceableKind(kind int) bool {
	return kind >= 30000 && kind < 40000
}

// IsEphemeralKind is ephemeral kind
func IsEphemeralKind(kind int) bool {
	return kind >= 20000 && kind < 30000
}

// IsRepostKind NIP-18 repost and generic repost
func IsRepostKind(kind int) bool {
	return kind == KindRepost || kind == KindGenericRepost
}

// ClassOf class of kind
func ClassOf(kind int) KindClass {
	switch {
	case IsRepostKind(kind):
		return ClassRepost
	case IsReplaceableKind(kind):
		return ClassReplaceable
	case IsParamReplaceableKind(kind):
		return ClassParameterized
	case IsEphemeralKind(kind):
		return ClassEphemeral
	}

	return ClassPlain
}
