package rescale

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tunnelmaker/internal/credentials"
	"tunnelmaker/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	creds := &credentials.Credentials{APIKey: "secret", BaseURL: ts.URL + "/"}
	return NewClient(creds, 0, logger.Discard()), ts
}

func TestListInstances_FollowsPagination(t *testing.T) {
	var serverURL string
	requests := 0

	client, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++

		if got := r.Header.Get("Authorization"); got != "Token secret" {
			t.Errorf("expected Token auth header, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Query().Get("page") {
		case "":
			if r.URL.Path != "/api/v2/jobs/StGaQb/instances/" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			fmt.Fprintf(w, `{"results":[{"publicIp":"10.0.0.1","sshPort":22,"username":"u1"}],"next":"%s/api/v2/jobs/StGaQb/instances/?page=2"}`, serverURL)
		case "2":
			// relative link on purpose
			fmt.Fprint(w, `{"results":[{"publicIp":"10.0.0.2","sshPort":22,"username":"u2"},{"publicIp":"10.0.0.3","sshPort":2222,"username":"u3"}],"next":"/api/v2/jobs/StGaQb/instances/?page=3"}`)
		case "3":
			fmt.Fprint(w, `{"results":[{"publicIp":"10.0.0.4","sshPort":22,"username":"u4"}],"next":null}`)
		default:
			t.Errorf("unexpected page request %s", r.URL.String())
		}
	})
	serverURL = ts.URL

	instances, err := client.ListInstances(context.Background(), "StGaQb")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if requests != 3 {
		t.Errorf("expected 3 requests, got %d", requests)
	}

	expected := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}

	if len(instances) != len(expected) {
		t.Fatalf("expected %d instances, got %d", len(expected), len(instances))
	}

	for i, ip := range expected {
		if instances[i].PublicIP != ip {
			t.Errorf("instance %d: expected %s, got %s", i, ip, instances[i].PublicIP)
		}
	}

	if instances[2].SSHPort != 2222 {
		t.Errorf("expected ssh port 2222, got %d", instances[2].SSHPort)
	}
}

func TestListInstances_NonSuccessStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail":"Invalid token."}`)
	})

	_, err := client.ListInstances(context.Background(), "StGaQb")

	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestGetHeadNode_ZeroInstances(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"results":[],"next":null}`)
	})

	head, err := client.GetHeadNode(context.Background(), "empty")

	if !errors.Is(err, ErrNoInstances) {
		t.Fatalf("expected ErrNoInstances, got %v", err)
	}
	if head != nil {
		t.Errorf("expected nil head node, got %v", head)
	}
}

func TestSelectHeadNode_SingleInstance(t *testing.T) {
	head, err := SelectHeadNode([]Instance{{PublicIP: "1.1.1.1", Role: "MPI_SLAVE"}})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if head.PublicIP != "1.1.1.1" {
		t.Errorf("expected the only instance, got %s", head.PublicIP)
	}
}

func TestSelectHeadNode_PrimaryRoleAnyPosition(t *testing.T) {
	instances := []Instance{
		{PublicIP: "1.1.1.1", Role: "MPI_SLAVE"},
		{PublicIP: "2.2.2.2"},
		{PublicIP: "3.3.3.3", Role: InstanceRoleMPIMaster},
		{PublicIP: "4.4.4.4", Role: InstanceRoleMPIMaster},
	}

	head, err := SelectHeadNode(instances)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if head.PublicIP != "3.3.3.3" {
		t.Errorf("expected first MPI_MASTER, got %s", head.PublicIP)
	}
}

func TestSelectHeadNode_NoPrimaryRole(t *testing.T) {
	head, err := SelectHeadNode([]Instance{{PublicIP: "1.1.1.1"}, {PublicIP: "2.2.2.2"}})

	if !errors.Is(err, ErrNoPrimaryInstance) {
		t.Fatalf("expected ErrNoPrimaryInstance, got %v", err)
	}
	if head != nil {
		t.Errorf("expected nil head node, got %v", head)
	}
}
