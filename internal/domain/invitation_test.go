package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseInvitationStatusFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    InvitationStatus
		wantErr bool
	}{
		{name: "valid uppercase", input: "ACCEPTED", want: InvitationAccepted},
		{name: "valid lowercase with spaces", input: " pending ", want: InvitationPending},
		{name: "invalid", input: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseInvitationStatusFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseInvitationStatusFromString() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseInvitationStatusFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseInvitationStatusFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInvitationStatusIsTerminal(t *testing.T) {
	t.Parallel()

	if InvitationPending.IsTerminal() {
		t.Fatal("PENDING must not be terminal")
	}
	for _, s := range []InvitationStatus{InvitationAccepted, InvitationRejected, InvitationExpired} {
		if !s.IsTerminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
}

func TestParseInvitationActionFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseInvitationActionFromString(" accept ")
	if err != nil {
		t.Fatalf("ParseInvitationActionFromString() unexpected error = %v", err)
	}
	if got != InvitationActionAccept {
		t.Fatalf("ParseInvitationActionFromString() = %s, want %s", got, InvitationActionAccept)
	}

	_, err = ParseInvitationActionFromString("maybe")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseInvitationActionFromString() error = %v, want ErrValidation", err)
	}
}

func TestInvitationValidate(t *testing.T) {
	t.Parallel()

	reason := "fully booked"
	tests := []struct {
		name       string
		invitation Invitation
		wantErr    bool
	}{
		{
			name: "valid pending",
			invitation: Invitation{
				OrganizationID: "org-1",
				ProviderID:     "prov-1",
				Status:         InvitationPending,
			},
		},
		{
			name: "rejected with reason",
			invitation: Invitation{
				OrganizationID:  "org-1",
				ProviderID:      "prov-1",
				Status:          InvitationRejected,
				RejectionReason: &reason,
			},
		},
		{
			name: "rejected without reason",
			invitation: Invitation{
				OrganizationID: "org-1",
				ProviderID:     "prov-1",
				Status:         InvitationRejected,
			},
			wantErr: true,
		},
		{
			name: "missing organization",
			invitation: Invitation{
				ProviderID: "prov-1",
				Status:     InvitationPending,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.invitation.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("Validate() error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestInvitationIsAcceptable(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	inv := Invitation{
		OrganizationID: "org-1",
		ProviderID:     "prov-1",
		Status:         InvitationPending,
		ExpiresAt:      now.Add(time.Hour),
	}

	if !inv.IsAcceptable(now) {
		t.Fatal("pending invitation before deadline should be acceptable")
	}
	if inv.IsAcceptable(now.Add(2 * time.Hour)) {
		t.Fatal("pending invitation past deadline should not be acceptable")
	}

	inv.Status = InvitationAccepted
	if inv.IsAcceptable(now) {
		t.Fatal("resolved invitation should not be acceptable")
	}
}
