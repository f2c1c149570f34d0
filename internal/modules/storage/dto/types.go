package dto

type PutInput struct {
	Key   string
	Value []byte
}

type PutOutput struct {
	Key  string
	Tier string
}

type GetOutput struct {
	Key   string
	Value []byte
}

type KeyStatusOutput struct {
	Key     string
	Tier    string
	Present bool
}

type StatusOutput struct {
	TransactionalAvailable bool
	Keys                   []KeyStatusOutput
	LastWarning            string
}
