package command

import (
	"github.com/goliatone/go-whitelist/core"
)

const (
	TypeAdmitMember       = "whitelist.command.member.admit"
	TypeRemoveMember      = "whitelist.command.member.remove"
	TypeRefreshCredential = "whitelist.command.credential.refresh"
)

type AdmitMemberMessage struct {
	Mail string
}

func (AdmitMemberMessage) Type() string { return TypeAdmitMember }

func (m AdmitMemberMessage) Validate() error {
	return validateMail(m.Mail)
}

type RemoveMemberMessage struct {
	Mail string
}

func (RemoveMemberMessage) Type() string { return TypeRemoveMember }

func (m RemoveMemberMessage) Validate() error {
	return validateMail(m.Mail)
}

type RefreshCredentialMessage struct{}

func (RefreshCredentialMessage) Type() string { return TypeRefreshCredential }

func validateMail(raw string) error {
	if _, err := core.ParseMail(raw); err != nil {
		return commandMailValidationError("mail", err.Error())
	}
	return nil
}
