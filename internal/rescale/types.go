package rescale

import "fmt"

type InstanceRole string

// InstanceRoleMPIMaster marks the head node of a multi-node cluster.
const InstanceRoleMPIMaster InstanceRole = "MPI_MASTER"

type Instance struct {
	ID       string       `json:"id,omitempty"`
	PublicIP string       `json:"publicIp"`
	SSHPort  uint         `json:"sshPort"`
	Username string       `json:"username"`
	Role     InstanceRole `json:"role,omitempty"`
}

func (i *Instance) String() string {
	return fmt.Sprintf("%s@%s:%d", i.Username, i.PublicIP, i.SSHPort)
}

type instancesPage struct {
	Results []Instance `json:"results"`
	Next    *string    `json:"next"`
}
