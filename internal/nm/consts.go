package nm

// Well-known NetworkManager bus names and paths.
const (
	BusName     = "org.freedesktop.NetworkManager"
	ManagerPath = "/org/freedesktop/NetworkManager"

	ManagerInterface          = "org.freedesktop.NetworkManager"
	DeviceInterface           = ManagerInterface + ".Device"
	WirelessInterface         = DeviceInterface + ".Wireless"
	AccessPointInterface      = ManagerInterface + ".AccessPoint"
	ActiveInterface           = ManagerInterface + ".Connection.Active"
	SettingsPath              = "/org/freedesktop/NetworkManager/Settings"
	SettingsInterface         = ManagerInterface + ".Settings"
	SettingsConnectionIface   = SettingsInterface + ".Connection"
	dbusPropertiesInterface   = "org.freedesktop.DBus.Properties"
	propertiesChangedMember   = "PropertiesChanged"
	stateChangedMember        = "StateChanged"
	deviceAddedMember         = "DeviceAdded"
	deviceRemovedMember       = "DeviceRemoved"
	getDevicesMethod          = ManagerInterface + ".GetDevices"
	activateConnectionMethod  = ManagerInterface + ".ActivateConnection"
	deactivateConnMethod      = ManagerInterface + ".DeactivateConnection"
	listConnectionsMethod     = SettingsInterface + ".ListConnections"
	getSettingsMethod         = SettingsConnectionIface + ".GetSettings"
	requestScanMethod         = WirelessInterface + ".RequestScan"
	getAllAccessPointsMethod  = WirelessInterface + ".GetAllAccessPoints"
)
